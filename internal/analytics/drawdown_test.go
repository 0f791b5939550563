package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackDrawdown(t *testing.T) {
	// cumulative P&L [100, 80, 120, 60]
	curve, err := TrackDrawdown(mustDerive(sequence("100", "-20", "40", "-60")))
	require.NoError(t, err)
	require.Len(t, curve.Points, 4)

	cumulative := make([]decimal.Decimal, 4)
	peaks := make([]decimal.Decimal, 4)
	dds := make([]decimal.Decimal, 4)
	pcts := make([]decimal.Decimal, 4)
	for i, p := range curve.Points {
		cumulative[i] = p.CumulativePnL
		peaks[i] = p.RunningPeak
		dds[i] = p.DrawdownAbs
		pcts[i] = p.DrawdownPct
		assert.Equal(t, i, p.Index)
	}

	assert.Equal(t, []string{"100", "80", "120", "60"}, decStrings(cumulative))
	assert.Equal(t, []string{"100", "100", "120", "120"}, decStrings(peaks))
	assert.Equal(t, []string{"0", "-20", "0", "-60"}, decStrings(dds))
	assert.Equal(t, []string{"0", "-20", "0", "-50"}, decStrings(pcts))

	assert.Equal(t, "-60", curve.MaxDrawdownAbs.String())
	assert.Equal(t, "-50", curve.MaxDrawdownPct.String())
	assert.Equal(t, 3, curve.TroughIndex)
	assert.Equal(t, "t03", curve.Points[3].TradeID)
}

func TestTrackDrawdown_Empty(t *testing.T) {
	curve, err := TrackDrawdown(nil)
	require.NoError(t, err)

	assert.Empty(t, curve.Points)
	assert.True(t, curve.MaxDrawdownAbs.IsZero())
	assert.True(t, curve.MaxDrawdownPct.IsZero())
	assert.Equal(t, -1, curve.TroughIndex)
}

func TestTrackDrawdown_LosingStartHasNoPercent(t *testing.T) {
	// peak stays at zero: absolute drawdown accrues, percent is undefined (0)
	curve, err := TrackDrawdown(mustDerive(sequence("-10", "-5", "20")))
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "0", "5"}, decStrings([]decimal.Decimal{
		curve.Points[0].RunningPeak, curve.Points[1].RunningPeak, curve.Points[2].RunningPeak,
	}))
	assert.Equal(t, "-15", curve.MaxDrawdownAbs.String())
	assert.Equal(t, 1, curve.TroughIndex)
	for _, p := range curve.Points {
		assert.True(t, p.DrawdownPct.IsZero())
	}
}

func TestTrackDrawdown_NeverPositive(t *testing.T) {
	curve, err := TrackDrawdown(mustDerive(sequence("3", "-8", "2.5", "9", "-1", "-1", "14", "-30")))
	require.NoError(t, err)

	for _, p := range curve.Points {
		assert.False(t, p.DrawdownAbs.IsPositive(), "point %d", p.Index)
		assert.False(t, p.DrawdownPct.IsPositive(), "point %d", p.Index)
		assert.True(t, p.RunningPeak.GreaterThanOrEqual(p.CumulativePnL))
		assert.True(t, p.DrawdownAbs.GreaterThanOrEqual(curve.MaxDrawdownAbs))
	}
}

func TestTrackDrawdown_EqualTimestampsAllowed(t *testing.T) {
	trades := sequence("10", "-5")
	trades[1].ExitTime = trades[0].ExitTime

	_, err := TrackDrawdown(mustDerive(trades))
	assert.NoError(t, err)
}

func TestTrackDrawdown_UnorderedInput(t *testing.T) {
	trades := sequence("10", "-5", "7")
	trades[2].ExitTime = trades[0].ExitTime.Add(-time.Minute)

	_, err := TrackDrawdown(mustDerive(trades))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnorderedInput))

	var unordered *UnorderedInputError
	require.ErrorAs(t, err, &unordered)
	assert.Equal(t, 2, unordered.Index)
}

func TestTrackDrawdown_FallsBackToTradeTime(t *testing.T) {
	trades := sequence("10", "-5")
	trades[0].ExitTime = time.Time{}
	trades[1].ExitTime = time.Time{}

	curve, err := TrackDrawdown(mustDerive(trades))
	require.NoError(t, err)
	assert.Equal(t, trades[1].TradeTime, curve.Points[1].Timestamp)
}
