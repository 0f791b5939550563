package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Period describes the time span covered by a trade set
type Period struct {
	FirstTrade   time.Time `json:"first_trade"`
	LastExit     time.Time `json:"last_exit"`
	TotalDays    int       `json:"total_days"`
	TradesPerDay float64   `json:"trades_per_day"`
}

func periodOf(trades []DerivedTrade) Period {
	var p Period
	if len(trades) == 0 {
		return p
	}

	for i, d := range trades {
		opened := d.TradeTime
		if opened.IsZero() {
			opened = d.ClosedAt()
		}
		if i == 0 || opened.Before(p.FirstTrade) {
			p.FirstTrade = opened
		}
		if i == 0 || d.ClosedAt().After(p.LastExit) {
			p.LastExit = d.ClosedAt()
		}
	}

	p.TotalDays = int(p.LastExit.Sub(p.FirstTrade) / (24 * time.Hour))
	if len(trades) > 1 {
		p.TradesPerDay = float64(len(trades)) / float64(max(p.TotalDays, 1))
	}
	return p
}

// MonthlyPerformance is the P&L of trades closed in one calendar month (UTC)
type MonthlyPerformance struct {
	Month   string          `json:"month"` // 2006-01
	Trades  int             `json:"trades"`
	PnL     decimal.Decimal `json:"pnl"`
	NetPnL  decimal.Decimal `json:"net_pnl"`
	WinRate float64         `json:"win_rate"`
}

// MonthlyBreakdown buckets trades by close month, ascending
func MonthlyBreakdown(trades []DerivedTrade) []MonthlyPerformance {
	buckets := make(map[string]*summaryAccumulator)
	for _, d := range trades {
		key := d.ClosedAt().UTC().Format("2006-01")
		acc, ok := buckets[key]
		if !ok {
			acc = &summaryAccumulator{}
			buckets[key] = acc
		}
		acc.add(d)
	}

	months := make([]string, 0, len(buckets))
	for k := range buckets {
		months = append(months, k)
	}
	sort.Strings(months)

	out := make([]MonthlyPerformance, 0, len(months))
	for _, m := range months {
		s := buckets[m].result()
		out = append(out, MonthlyPerformance{
			Month:   m,
			Trades:  s.TotalTrades,
			PnL:     s.TotalPnL,
			NetPnL:  s.NetPnL,
			WinRate: s.WinRate,
		})
	}
	return out
}

// TimeBucket aggregates trades opened in the same weekday or hour (UTC)
type TimeBucket struct {
	Key     int             `json:"key"`
	Label   string          `json:"label"`
	Trades  int             `json:"trades"`
	PnL     decimal.Decimal `json:"pnl"`
	AvgPnL  decimal.Decimal `json:"avg_pnl"`
	WinRate float64         `json:"win_rate"`
}

// TimingBreakdown groups trades by when they were opened
type TimingBreakdown struct {
	ByWeekday   []TimeBucket `json:"by_weekday"`
	ByHour      []TimeBucket `json:"by_hour"`
	BestWeekday *TimeBucket  `json:"best_weekday,omitempty"`
	BestHour    *TimeBucket  `json:"best_hour,omitempty"`
}

// Timing buckets trades by weekday and hour of their trade time.
// Best buckets are chosen by average P&L; ties keep the lowest key.
func Timing(trades []DerivedTrade) TimingBreakdown {
	var tb TimingBreakdown

	tb.ByWeekday = timeBuckets(trades,
		func(t time.Time) int { return int(t.Weekday()) },
		func(k int) string { return time.Weekday(k).String() })
	tb.ByHour = timeBuckets(trades,
		func(t time.Time) int { return t.Hour() },
		func(k int) string { return time.Date(2000, 1, 1, k, 0, 0, 0, time.UTC).Format("15:00") })

	tb.BestWeekday = bestBucket(tb.ByWeekday)
	tb.BestHour = bestBucket(tb.ByHour)
	return tb
}

func timeBuckets(trades []DerivedTrade, keyOf func(time.Time) int, labelOf func(int) string) []TimeBucket {
	buckets := make(map[int]*summaryAccumulator)
	for _, d := range trades {
		opened := d.TradeTime
		if opened.IsZero() {
			opened = d.ClosedAt()
		}
		k := keyOf(opened.UTC())
		acc, ok := buckets[k]
		if !ok {
			acc = &summaryAccumulator{}
			buckets[k] = acc
		}
		acc.add(d)
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]TimeBucket, 0, len(keys))
	for _, k := range keys {
		s := buckets[k].result()
		out = append(out, TimeBucket{
			Key:     k,
			Label:   labelOf(k),
			Trades:  s.TotalTrades,
			PnL:     s.TotalPnL,
			AvgPnL:  s.AvgTrade,
			WinRate: s.WinRate,
		})
	}
	return out
}

func bestBucket(buckets []TimeBucket) *TimeBucket {
	if len(buckets) == 0 {
		return nil
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.AvgPnL.GreaterThan(best.AvgPnL) {
			best = b
		}
	}
	return &best
}

const (
	// rBinWidth is the histogram bucket width in R while the range fits in maxRBins
	rBinWidth = 0.5

	// maxRBins caps the histogram; wider ranges get maxRBins equal-width buckets
	maxRBins = 20
)

// RBin is one histogram bucket, [Lower, Upper)
type RBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// RStats summarizes the defined R-multiples of a trade set
type RStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P10    float64 `json:"p10"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// RDistribution is the shape of R-multiples across trades.
// Trades with undefined R are counted but never binned.
type RDistribution struct {
	Defined   int     `json:"defined"`
	Undefined int     `json:"undefined"`
	Stats     *RStats `json:"stats,omitempty"` // nil when no trade has a defined R
	Bins      []RBin  `json:"bins"`
}

// RMultipleDistribution computes quantiles and a histogram of at most maxRBins buckets
func RMultipleDistribution(trades []DerivedTrade) RDistribution {
	dist := RDistribution{Bins: make([]RBin, 0)}

	rs := make([]float64, 0, len(trades))
	for _, d := range trades {
		if !d.RMultiple.Valid {
			dist.Undefined++
			continue
		}
		rs = append(rs, d.RMultiple.Decimal.InexactFloat64())
	}
	dist.Defined = len(rs)
	if len(rs) == 0 {
		return dist
	}

	// sorted input makes the float reductions order-independent
	sort.Float64s(rs)

	dist.Stats = &RStats{
		Mean:   stat.Mean(rs, nil),
		Median: stat.Quantile(0.5, stat.Empirical, rs, nil),
		P10:    stat.Quantile(0.10, stat.Empirical, rs, nil),
		P25:    stat.Quantile(0.25, stat.Empirical, rs, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, rs, nil),
		P90:    stat.Quantile(0.90, stat.Empirical, rs, nil),
		Min:    rs[0],
		Max:    rs[len(rs)-1],
	}

	dividers := rDividers(rs[0], rs[len(rs)-1])
	counts := stat.Histogram(nil, dividers, rs, nil)
	for i, c := range counts {
		dist.Bins = append(dist.Bins, RBin{
			Lower: dividers[i],
			Upper: dividers[i+1],
			Count: int(c),
		})
	}
	return dist
}

// rDividers returns bin edges covering [lo, hi] with the last edge strictly
// above hi. Bins are 0.5R wide on half-R boundaries unless that needs more
// than maxRBins, in which case [lo, hi] is split into maxRBins equal bins.
func rDividers(lo, hi float64) []float64 {
	start := math.Floor(lo/rBinWidth) * rBinWidth
	if bins := math.Floor((hi-start)/rBinWidth) + 1; bins <= maxRBins {
		dividers := make([]float64, int(bins)+1)
		for i := range dividers {
			dividers[i] = start + float64(i)*rBinWidth
		}
		return dividers
	}

	width := (hi - lo) / maxRBins
	dividers := make([]float64, maxRBins+1)
	for i := 0; i < maxRBins; i++ {
		dividers[i] = lo + float64(i)*width
	}
	dividers[maxRBins] = math.Nextafter(hi, math.Inf(1))
	return dividers
}

// FollowUp is the performance of trades that follow a given outcome
type FollowUp struct {
	Trades  int                 `json:"trades"`
	AvgPnL  decimal.NullDecimal `json:"avg_pnl"` // invalid when no trade follows
	WinRate float64             `json:"win_rate"`
}

// SequenceStats compares trades by the outcome of the trade before them
type SequenceStats struct {
	AfterWin       FollowUp `json:"after_win"`
	AfterLoss      FollowUp `json:"after_loss"`
	AfterBreakeven FollowUp `json:"after_breakeven"`
}

// Sequence classifies each trade (except the first) by its predecessor's
// outcome, using the same win/loss/breakeven split as the streak analysis.
func Sequence(trades []DerivedTrade) (*SequenceStats, error) {
	if err := checkOrdered(trades); err != nil {
		return nil, err
	}

	var accs [3]summaryAccumulator
	for i := 1; i < len(trades); i++ {
		accs[trades[i-1].Outcome()].add(trades[i])
	}

	return &SequenceStats{
		AfterWin:       followUp(&accs[OutcomeWin]),
		AfterLoss:      followUp(&accs[OutcomeLoss]),
		AfterBreakeven: followUp(&accs[OutcomeBreakeven]),
	}, nil
}

func followUp(acc *summaryAccumulator) FollowUp {
	s := acc.result()
	f := FollowUp{Trades: s.TotalTrades, WinRate: s.WinRate}
	if s.TotalTrades > 0 {
		f.AvgPnL = decimal.NewNullDecimal(s.AvgTrade)
	}
	return f
}
