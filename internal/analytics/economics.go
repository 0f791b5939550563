package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// Outcome classifies a trade by the sign of its P&L
type Outcome int

const (
	OutcomeBreakeven Outcome = iota
	OutcomeWin
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return "breakeven"
	}
}

// DerivedTrade is a trade plus its computed economics.
// It is built fresh on every analysis pass and never written back to the store.
type DerivedTrade struct {
	contracts.Trade

	PnL       decimal.Decimal     `json:"pnl"`
	Risk      decimal.Decimal     `json:"risk_amount"`
	RMultiple decimal.NullDecimal `json:"r_multiple"` // invalid when risk is zero
}

// Outcome returns win (pnl > 0), loss (pnl < 0) or breakeven (pnl == 0)
func (d DerivedTrade) Outcome() Outcome {
	switch d.PnL.Sign() {
	case 1:
		return OutcomeWin
	case -1:
		return OutcomeLoss
	default:
		return OutcomeBreakeven
	}
}

// NetPnL returns P&L after fees
func (d DerivedTrade) NetPnL() decimal.Decimal {
	return d.PnL.Sub(d.Fees)
}

// Derive computes realized P&L and R-multiple for a single trade.
// ⭐ SSOT: P&L / R-multiple 계산은 여기서만
func Derive(t contracts.Trade) (DerivedTrade, error) {
	if err := validateTrade(t); err != nil {
		return DerivedTrade{}, err
	}

	var move decimal.Decimal
	if t.Direction == contracts.DirectionLong {
		move = t.Exit.Sub(t.Entry)
	} else {
		move = t.Entry.Sub(t.Exit)
	}
	pnl := move.Mul(t.Quantity)
	risk := t.Entry.Sub(t.Stop).Abs().Mul(t.Quantity)

	d := DerivedTrade{Trade: t, PnL: pnl, Risk: risk}
	if risk.IsPositive() {
		d.RMultiple = decimal.NewNullDecimal(pnl.Div(risk))
	}
	return d, nil
}

// DeriveAll derives every trade, failing on the first invalid one.
// The input slice is not modified.
func DeriveAll(trades []contracts.Trade) ([]DerivedTrade, error) {
	derived := make([]DerivedTrade, 0, len(trades))
	for _, t := range trades {
		d, err := Derive(t)
		if err != nil {
			return nil, err
		}
		derived = append(derived, d)
	}
	return derived, nil
}

func validateTrade(t contracts.Trade) error {
	if !t.Direction.Valid() {
		return &InvalidTradeError{TradeID: t.ID, Field: "direction", Value: string(t.Direction), Reason: "must be LONG or SHORT"}
	}

	positive := []struct {
		field string
		value decimal.Decimal
	}{
		{"entry_price", t.Entry},
		{"stop_price", t.Stop},
		{"exit_price", t.Exit},
		{"quantity", t.Quantity},
	}
	for _, p := range positive {
		if !p.value.IsPositive() {
			return &InvalidTradeError{TradeID: t.ID, Field: p.field, Value: p.value.String(), Reason: "must be positive"}
		}
	}

	if t.Fees.IsNegative() {
		return &InvalidTradeError{TradeID: t.ID, Field: "fees", Value: t.Fees.String(), Reason: "must not be negative"}
	}
	return nil
}
