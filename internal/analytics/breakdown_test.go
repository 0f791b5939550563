package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

func TestPeriodOf(t *testing.T) {
	trades := sequence("1", "2", "3")
	p := periodOf(mustDerive(trades))

	assert.Equal(t, trades[0].TradeTime, p.FirstTrade)
	assert.Equal(t, trades[2].ExitTime, p.LastExit)
	assert.Equal(t, 2, p.TotalDays)
	assert.InDelta(t, 1.5, p.TradesPerDay, 1e-9)
}

func TestPeriodOf_Empty(t *testing.T) {
	assert.Equal(t, Period{}, periodOf(nil))
}

func TestMonthlyBreakdown(t *testing.T) {
	trades := sequence("10", "-4", "6")
	trades[0].ExitTime = time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	trades[1].ExitTime = time.Date(2024, 2, 1, 1, 0, 0, 0, time.UTC)
	trades[2].ExitTime = time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	trades[2].Fees = dec("1")

	months := MonthlyBreakdown(mustDerive(trades))
	require.Len(t, months, 2)

	assert.Equal(t, "2024-01", months[0].Month)
	assert.Equal(t, 1, months[0].Trades)
	assert.Equal(t, "10", months[0].PnL.String())

	assert.Equal(t, "2024-02", months[1].Month)
	assert.Equal(t, 2, months[1].Trades)
	assert.Equal(t, "2", months[1].PnL.String())
	assert.Equal(t, "1", months[1].NetPnL.String())
	assert.InDelta(t, 50.0, months[1].WinRate, 1e-9)
}

func TestMonthlyBreakdown_UsesUTC(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	trades := sequence("10")
	// 2024-03-01 05:00 KST is still February in UTC
	trades[0].ExitTime = time.Date(2024, 3, 1, 5, 0, 0, 0, seoul)

	months := MonthlyBreakdown(mustDerive(trades))
	require.Len(t, months, 1)
	assert.Equal(t, "2024-02", months[0].Month)
}

func TestTiming(t *testing.T) {
	// opened Monday, Tuesday, Wednesday at 08:30 UTC
	tb := Timing(mustDerive(sequence("10", "-5", "20")))

	require.Len(t, tb.ByWeekday, 3)
	assert.Equal(t, "Monday", tb.ByWeekday[0].Label)
	assert.Equal(t, int(time.Monday), tb.ByWeekday[0].Key)

	require.NotNil(t, tb.BestWeekday)
	assert.Equal(t, "Wednesday", tb.BestWeekday.Label)
	assert.Equal(t, "20", tb.BestWeekday.AvgPnL.String())

	require.Len(t, tb.ByHour, 1)
	assert.Equal(t, "08:00", tb.ByHour[0].Label)
	assert.Equal(t, 3, tb.ByHour[0].Trades)
	require.NotNil(t, tb.BestHour)
	assert.Equal(t, 8, tb.BestHour.Key)
}

func TestTiming_TieKeepsLowestKey(t *testing.T) {
	tb := Timing(mustDerive(sequence("5", "5")))

	require.NotNil(t, tb.BestWeekday)
	assert.Equal(t, "Monday", tb.BestWeekday.Label)
}

func TestTiming_Empty(t *testing.T) {
	tb := Timing(nil)
	assert.Empty(t, tb.ByWeekday)
	assert.Nil(t, tb.BestWeekday)
	assert.Nil(t, tb.BestHour)
}

func TestRMultipleDistribution(t *testing.T) {
	// risk is 5 per trade: R = [1, -1, 0.5, 2]
	trades := sequence("5", "-5", "2.5", "10")
	trades = append(trades, contracts.Trade{
		ID: "zero-risk", Direction: contracts.DirectionLong,
		Entry: dec("10"), Stop: dec("10"), Exit: dec("11"), Quantity: dec("1"),
		ExitTime: baseTime.Add(30 * 24 * time.Hour),
	})

	dist := RMultipleDistribution(mustDerive(trades))

	assert.Equal(t, 4, dist.Defined)
	assert.Equal(t, 1, dist.Undefined)
	require.NotNil(t, dist.Stats)
	assert.InDelta(t, 0.625, dist.Stats.Mean, 1e-12)
	assert.Equal(t, -1.0, dist.Stats.Min)
	assert.Equal(t, 2.0, dist.Stats.Max)
	assert.LessOrEqual(t, dist.Stats.P10, dist.Stats.Median)
	assert.LessOrEqual(t, dist.Stats.Median, dist.Stats.P90)

	require.Len(t, dist.Bins, 7)
	assert.Equal(t, -1.0, dist.Bins[0].Lower)
	assert.Equal(t, 2.5, dist.Bins[6].Upper)

	counts := make([]int, len(dist.Bins))
	total := 0
	for i, b := range dist.Bins {
		counts[i] = b.Count
		total += b.Count
	}
	assert.Equal(t, []int{1, 0, 0, 1, 1, 0, 1}, counts)
	assert.Equal(t, dist.Defined, total)
}

func TestRMultipleDistribution_TightStopKeepsBinsBounded(t *testing.T) {
	// risk is 0.000001: R = 10,000,000
	trades := []contracts.Trade{
		longTrade("tight", "10", 0),
		longTrade("loser", "-5", time.Hour),
	}
	trades[0].Stop = dec("99.999999")

	dist := RMultipleDistribution(mustDerive(trades))

	require.NotNil(t, dist.Stats)
	assert.InDelta(t, 1e7, dist.Stats.Max, 1e-3)
	require.Len(t, dist.Bins, maxRBins)
	assert.Equal(t, -1.0, dist.Bins[0].Lower)
	assert.Greater(t, dist.Bins[maxRBins-1].Upper, dist.Stats.Max)

	total := 0
	for i, b := range dist.Bins {
		assert.Less(t, b.Lower, b.Upper)
		if i > 0 {
			assert.Equal(t, dist.Bins[i-1].Upper, b.Lower)
		}
		total += b.Count
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, dist.Bins[0].Count)
	assert.Equal(t, 1, dist.Bins[maxRBins-1].Count)
}

func TestRDividers(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
		want   int // bins
	}{
		{"single value", 1, 1, 1},
		{"half-R grid", -1, 2, 7},
		{"widest half-R grid", 0, 9.99, maxRBins},
		{"equal-width fallback", 0, 10, maxRBins},
		{"huge range", -3, 1e12, maxRBins},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := rDividers(tt.lo, tt.hi)
			require.Len(t, d, tt.want+1)
			assert.LessOrEqual(t, d[0], tt.lo)
			assert.Greater(t, d[len(d)-1], tt.hi)
			for i := 1; i < len(d); i++ {
				assert.Less(t, d[i-1], d[i])
			}
		})
	}
}

func TestRMultipleDistribution_NoDefinedR(t *testing.T) {
	dist := RMultipleDistribution(nil)

	assert.Nil(t, dist.Stats)
	assert.NotNil(t, dist.Bins)
	assert.Empty(t, dist.Bins)
}

func TestRMultipleDistribution_SingleValue(t *testing.T) {
	dist := RMultipleDistribution(mustDerive(sequence("5")))

	require.Len(t, dist.Bins, 1)
	assert.Equal(t, 1.0, dist.Bins[0].Lower)
	assert.Equal(t, 1.5, dist.Bins[0].Upper)
	assert.Equal(t, 1, dist.Bins[0].Count)
}

func TestSequence(t *testing.T) {
	// outcomes W L W B W
	stats, err := Sequence(mustDerive(sequence("5", "-5", "3", "0", "2")))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.AfterWin.Trades)
	require.True(t, stats.AfterWin.AvgPnL.Valid)
	assert.Equal(t, "-2.5", stats.AfterWin.AvgPnL.Decimal.String())
	assert.Equal(t, 0.0, stats.AfterWin.WinRate)

	assert.Equal(t, 1, stats.AfterLoss.Trades)
	assert.Equal(t, "3", stats.AfterLoss.AvgPnL.Decimal.String())
	assert.InDelta(t, 100.0, stats.AfterLoss.WinRate, 1e-9)

	assert.Equal(t, 1, stats.AfterBreakeven.Trades)
	assert.Equal(t, "2", stats.AfterBreakeven.AvgPnL.Decimal.String())
}

func TestSequence_NoFollowers(t *testing.T) {
	stats, err := Sequence(mustDerive(sequence("5")))
	require.NoError(t, err)

	assert.Equal(t, 0, stats.AfterWin.Trades)
	assert.False(t, stats.AfterWin.AvgPnL.Valid)
	assert.False(t, stats.AfterLoss.AvgPnL.Valid)
}

func TestSequence_UnorderedInput(t *testing.T) {
	trades := sequence("5", "-5")
	trades[0], trades[1] = trades[1], trades[0]

	_, err := Sequence(mustDerive(trades))
	assert.ErrorIs(t, err, ErrUnorderedInput)
}
