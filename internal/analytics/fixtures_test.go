package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

var baseTime = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// longTrade builds a LONG trade with entry 100 and stop 95 (risk 5 per unit)
// whose exit yields the given P&L for quantity 1.
func longTrade(id string, pnl string, closedAfter time.Duration) contracts.Trade {
	return contracts.Trade{
		ID:        id,
		Symbol:    "AAPL",
		Direction: contracts.DirectionLong,
		Entry:     dec("100"),
		Stop:      dec("95"),
		Exit:      dec("100").Add(dec(pnl)),
		Quantity:  dec("1"),
		Fees:      decimal.Zero,
		TradeTime: baseTime.Add(closedAfter - time.Hour),
		ExitTime:  baseTime.Add(closedAfter),
	}
}

// sequence builds LONG trades closing one day apart with the given P&L values
func sequence(pnls ...string) []contracts.Trade {
	trades := make([]contracts.Trade, len(pnls))
	for i, p := range pnls {
		trades[i] = longTrade(fmt.Sprintf("t%02d", i), p, time.Duration(i)*24*time.Hour)
	}
	return trades
}

func withSetup(trades []contracts.Trade, setups ...string) []contracts.Trade {
	out := make([]contracts.Trade, len(trades))
	copy(out, trades)
	for i := range out {
		out[i].Setup = setups[i%len(setups)]
	}
	return out
}

func mustDerive(trades []contracts.Trade) []DerivedTrade {
	derived, err := DeriveAll(trades)
	if err != nil {
		panic(err)
	}
	return derived
}

func decStrings(ds []decimal.Decimal) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
