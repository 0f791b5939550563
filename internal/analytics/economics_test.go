package analytics

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name      string
		trade     contracts.Trade
		wantPnL   string
		wantRisk  string
		wantR     string // empty = undefined
		wantState Outcome
	}{
		{
			name: "long winner",
			trade: contracts.Trade{ID: "a", Direction: contracts.DirectionLong,
				Entry: dec("100"), Stop: dec("95"), Exit: dec("110"), Quantity: dec("10")},
			wantPnL: "100", wantRisk: "50", wantR: "2", wantState: OutcomeWin,
		},
		{
			name: "short winner",
			trade: contracts.Trade{ID: "b", Direction: contracts.DirectionShort,
				Entry: dec("100"), Stop: dec("105"), Exit: dec("90"), Quantity: dec("5")},
			wantPnL: "50", wantRisk: "25", wantR: "2", wantState: OutcomeWin,
		},
		{
			name: "zero risk",
			trade: contracts.Trade{ID: "c", Direction: contracts.DirectionLong,
				Entry: dec("100"), Stop: dec("100"), Exit: dec("110"), Quantity: dec("1")},
			wantPnL: "10", wantRisk: "0", wantR: "", wantState: OutcomeWin,
		},
		{
			name: "short loser with stop below entry",
			trade: contracts.Trade{ID: "d", Direction: contracts.DirectionShort,
				Entry: dec("50"), Stop: dec("48"), Exit: dec("53"), Quantity: dec("2")},
			wantPnL: "-6", wantRisk: "4", wantR: "-1.5", wantState: OutcomeLoss,
		},
		{
			name: "breakeven",
			trade: contracts.Trade{ID: "e", Direction: contracts.DirectionLong,
				Entry: dec("20"), Stop: dec("19"), Exit: dec("20"), Quantity: dec("3")},
			wantPnL: "0", wantRisk: "3", wantR: "0", wantState: OutcomeBreakeven,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Derive(tt.trade)
			require.NoError(t, err)

			assert.True(t, d.PnL.Equal(dec(tt.wantPnL)), "pnl = %s", d.PnL)
			assert.True(t, d.Risk.Equal(dec(tt.wantRisk)), "risk = %s", d.Risk)
			if tt.wantR == "" {
				assert.False(t, d.RMultiple.Valid)
			} else {
				require.True(t, d.RMultiple.Valid)
				assert.True(t, d.RMultiple.Decimal.Equal(dec(tt.wantR)), "r = %s", d.RMultiple.Decimal)
			}
			assert.Equal(t, tt.wantState, d.Outcome())
			assert.Equal(t, tt.trade.ID, d.ID)
		})
	}
}

func TestDerive_NetPnL(t *testing.T) {
	trade := longTrade("fees", "10", 0)
	trade.Fees = dec("1.25")

	d, err := Derive(trade)
	require.NoError(t, err)

	assert.True(t, d.NetPnL().Equal(dec("8.75")))
	assert.Equal(t, OutcomeWin, d.Outcome(), "outcome uses gross pnl")
}

func TestDerive_InvalidTrade(t *testing.T) {
	valid := longTrade("x", "5", 0)

	tests := []struct {
		name   string
		mutate func(*contracts.Trade)
		field  string
	}{
		{"unknown direction", func(tr *contracts.Trade) { tr.Direction = "FLAT" }, "direction"},
		{"zero entry", func(tr *contracts.Trade) { tr.Entry = decimal.Zero }, "entry_price"},
		{"negative stop", func(tr *contracts.Trade) { tr.Stop = dec("-1") }, "stop_price"},
		{"zero exit", func(tr *contracts.Trade) { tr.Exit = decimal.Zero }, "exit_price"},
		{"zero quantity", func(tr *contracts.Trade) { tr.Quantity = decimal.Zero }, "quantity"},
		{"negative fees", func(tr *contracts.Trade) { tr.Fees = dec("-0.01") }, "fees"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := valid
			tt.mutate(&trade)

			_, err := Derive(trade)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTrade))

			var invalid *InvalidTradeError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, "x", invalid.TradeID)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestDeriveAll_DoesNotModifyInput(t *testing.T) {
	trades := sequence("10", "-5")
	snapshot := make([]contracts.Trade, len(trades))
	copy(snapshot, trades)

	derived, err := DeriveAll(trades)
	require.NoError(t, err)
	require.Len(t, derived, 2)
	assert.Equal(t, snapshot, trades)
}

func TestDeriveAll_FailsOnFirstInvalid(t *testing.T) {
	trades := sequence("10", "-5", "3")
	trades[1].Quantity = decimal.Zero

	_, err := DeriveAll(trades)
	var invalid *InvalidTradeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "t01", invalid.TradeID)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "win", OutcomeWin.String())
	assert.Equal(t, "loss", OutcomeLoss.String())
	assert.Equal(t, "breakeven", OutcomeBreakeven.String())
}
