package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// DrawdownPoint is one step of the equity curve built from realized P&L
type DrawdownPoint struct {
	Index         int             `json:"index"`
	TradeID       string          `json:"trade_id"`
	Timestamp     time.Time       `json:"timestamp"`
	CumulativePnL decimal.Decimal `json:"cumulative_pnl"`
	RunningPeak   decimal.Decimal `json:"running_peak"`
	DrawdownAbs   decimal.Decimal `json:"drawdown_abs"` // <= 0
	DrawdownPct   decimal.Decimal `json:"drawdown_pct"` // <= 0, 0 while the peak is not positive
}

// DrawdownCurve is the full drawdown history plus its extremes
type DrawdownCurve struct {
	Points         []DrawdownPoint `json:"points"`
	MaxDrawdownAbs decimal.Decimal `json:"max_drawdown_abs"` // most negative DrawdownAbs
	MaxDrawdownPct decimal.Decimal `json:"max_drawdown_pct"` // most negative DrawdownPct
	TroughIndex    int             `json:"trough_index"`     // index of MaxDrawdownAbs, -1 when none
}

// TrackDrawdown builds the drawdown curve over trades sorted ascending by close time.
// Returns *UnorderedInputError if a trade closes before its predecessor.
func TrackDrawdown(trades []DerivedTrade) (*DrawdownCurve, error) {
	if err := checkOrdered(trades); err != nil {
		return nil, err
	}

	curve := &DrawdownCurve{
		Points:      make([]DrawdownPoint, 0, len(trades)),
		TroughIndex: -1,
	}

	var cumulative, peak decimal.Decimal
	for i, d := range trades {
		cumulative = cumulative.Add(d.PnL)
		// peak starts at zero: the curve begins flat before the first trade
		if cumulative.GreaterThan(peak) {
			peak = cumulative
		}

		dd := cumulative.Sub(peak)
		var pct decimal.Decimal
		if peak.IsPositive() {
			pct = dd.Div(peak).Mul(hundred)
		}

		curve.Points = append(curve.Points, DrawdownPoint{
			Index:         i,
			TradeID:       d.ID,
			Timestamp:     d.ClosedAt(),
			CumulativePnL: cumulative,
			RunningPeak:   peak,
			DrawdownAbs:   dd,
			DrawdownPct:   pct,
		})

		if dd.LessThan(curve.MaxDrawdownAbs) {
			curve.MaxDrawdownAbs = dd
			curve.TroughIndex = i
		}
		if pct.LessThan(curve.MaxDrawdownPct) {
			curve.MaxDrawdownPct = pct
		}
	}

	return curve, nil
}

// checkOrdered verifies ascending close time; equal timestamps are allowed
func checkOrdered(trades []DerivedTrade) error {
	for i := 1; i < len(trades); i++ {
		prev, cur := trades[i-1].ClosedAt(), trades[i].ClosedAt()
		if cur.Before(prev) {
			return &UnorderedInputError{Index: i, Previous: prev, Current: cur}
		}
	}
	return nil
}

func isOrdered(trades []DerivedTrade) bool {
	return checkOrdered(trades) == nil
}
