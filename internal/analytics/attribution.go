package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SetupAttribution is the performance of one setup label
type SetupAttribution struct {
	Setup       string              `json:"setup"`
	Rank        int                 `json:"rank"` // 1 = highest total P&L
	Summary     PerformanceSummary  `json:"summary"`
	MaxDrawdown decimal.NullDecimal `json:"max_drawdown"` // invalid when the partition is not time ordered
	PnLShare    decimal.NullDecimal `json:"pnl_share"`    // percent of overall P&L, invalid when overall is 0
}

// LabelFunc maps a trade to its attribution label
type LabelFunc func(DerivedTrade) string

// BySetup labels trades by setup, with UncategorizedLabel for trades without one
func BySetup(d DerivedTrade) string {
	return d.SetupLabel()
}

type partition struct {
	label  string
	trades []DerivedTrade
}

// Attribute partitions trades by label and summarizes each partition with
// the same formulas as the portfolio-wide summary. Partitions are processed
// by up to workers goroutines; the result is identical for any worker count.
// Output is ordered by total P&L desc, trade count desc, label asc.
// ⭐ SSOT: 셋업별 기여도 분석은 여기서만
func Attribute(trades []DerivedTrade, labelOf LabelFunc, workers int) []SetupAttribution {
	if labelOf == nil {
		labelOf = BySetup
	}

	parts := partitionTrades(trades, labelOf)
	total := Summarize(trades).TotalPnL

	out := make([]SetupAttribution, len(parts))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range parts {
		i := i
		g.Go(func() error {
			out[i] = attributePartition(parts[i], total)
			return nil
		})
	}
	_ = g.Wait() // partitions never fail

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Summary, out[j].Summary
		if c := a.TotalPnL.Cmp(b.TotalPnL); c != 0 {
			return c > 0
		}
		if a.TotalTrades != b.TotalTrades {
			return a.TotalTrades > b.TotalTrades
		}
		return out[i].Setup < out[j].Setup
	})
	for i := range out {
		out[i].Rank = i + 1
	}

	return out
}

// partitionTrades groups trades by label, keeping input order within a group.
// Labels only appear when at least one trade carries them.
func partitionTrades(trades []DerivedTrade, labelOf LabelFunc) []partition {
	index := make(map[string]int)
	parts := make([]partition, 0)

	for _, d := range trades {
		label := labelOf(d)
		i, ok := index[label]
		if !ok {
			i = len(parts)
			index[label] = i
			parts = append(parts, partition{label: label})
		}
		parts[i].trades = append(parts[i].trades, d)
	}
	return parts
}

func attributePartition(p partition, overall decimal.Decimal) SetupAttribution {
	attr := SetupAttribution{
		Setup:   p.label,
		Summary: Summarize(p.trades),
	}

	if isOrdered(p.trades) {
		if curve, err := TrackDrawdown(p.trades); err == nil {
			attr.MaxDrawdown = decimal.NewNullDecimal(curve.MaxDrawdownAbs)
		}
	}

	if !overall.IsZero() {
		attr.PnLShare = decimal.NewNullDecimal(attr.Summary.TotalPnL.Div(overall).Mul(hundred))
	}
	return attr
}
