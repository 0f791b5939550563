package contracts

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a closed trade
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// ParseDirection normalizes exchange/journal spellings ("Long", "buy", "SHORT", ...)
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return DirectionLong, true
	case "SHORT", "SELL":
		return DirectionShort, true
	default:
		return "", false
	}
}

// Valid reports whether d is one of the known directions
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// UncategorizedLabel is the setup label reserved for trades without a setup
const UncategorizedLabel = "Uncategorized"

// Trade represents a closed trade record owned by the trade store.
// ⭐ SSOT: 분석 엔진은 Trade를 읽기 전용으로 취급
type Trade struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Direction Direction       `json:"direction"`
	Entry     decimal.Decimal `json:"entry_price"`
	Stop      decimal.Decimal `json:"stop_price"`
	Exit      decimal.Decimal `json:"exit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Fees      decimal.Decimal `json:"fees"`
	TradeTime time.Time       `json:"trade_time"`
	ExitTime  time.Time       `json:"exit_time"`
	Setup     string          `json:"setup,omitempty"` // empty = uncategorized
}

// ClosedAt returns the timestamp used for ordering.
// Records imported without an exit time fall back to the trade time.
func (t Trade) ClosedAt() time.Time {
	if t.ExitTime.IsZero() {
		return t.TradeTime
	}
	return t.ExitTime
}

// SetupLabel returns the attribution label of the trade
func (t Trade) SetupLabel() string {
	if t.Setup == "" {
		return UncategorizedLabel
	}
	return t.Setup
}
