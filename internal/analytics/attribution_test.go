package analytics

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

func TestAttribute(t *testing.T) {
	trades := withSetup(sequence("10", "-5", "20", "3", "-8", "0"), "A", "B", "C")
	derived := mustDerive(trades)

	attrs := Attribute(derived, BySetup, 2)
	require.Len(t, attrs, 3)

	assert.Equal(t, "C", attrs[0].Setup)
	assert.Equal(t, "A", attrs[1].Setup)
	assert.Equal(t, "B", attrs[2].Setup)
	for i, a := range attrs {
		assert.Equal(t, i+1, a.Rank)
	}

	assert.Equal(t, "20", attrs[0].Summary.TotalPnL.String())
	assert.Equal(t, "13", attrs[1].Summary.TotalPnL.String())
	assert.Equal(t, "-13", attrs[2].Summary.TotalPnL.String())

	require.True(t, attrs[0].PnLShare.Valid)
	assert.Equal(t, "100", attrs[0].PnLShare.Decimal.String())
	assert.Equal(t, "65", attrs[1].PnLShare.Decimal.String())
	assert.Equal(t, "-65", attrs[2].PnLShare.Decimal.String())

	require.True(t, attrs[2].MaxDrawdown.Valid)
	assert.Equal(t, "-13", attrs[2].MaxDrawdown.Decimal.String())
}

func TestAttribute_Conservation(t *testing.T) {
	trades := withSetup(sequence("1.5", "-2", "7", "0", "-3.25", "9", "4", "-1"), "breakout", "", "pullback", "breakout", "")
	derived := mustDerive(trades)

	overall := Summarize(derived)
	attrs := Attribute(derived, BySetup, 0)

	count := 0
	pnl := decimal.Zero
	for _, a := range attrs {
		count += a.Summary.TotalTrades
		pnl = pnl.Add(a.Summary.TotalPnL)
	}
	assert.Equal(t, overall.TotalTrades, count)
	assert.True(t, overall.TotalPnL.Equal(pnl))
}

func TestAttribute_Uncategorized(t *testing.T) {
	trades := withSetup(sequence("5", "-1"), "", "momentum")

	attrs := Attribute(mustDerive(trades), BySetup, 1)
	require.Len(t, attrs, 2)
	assert.Equal(t, contracts.UncategorizedLabel, attrs[0].Setup)
	assert.Equal(t, "momentum", attrs[1].Setup)
}

func TestAttribute_TieBreak(t *testing.T) {
	trades := withSetup(sequence("10", "5", "5", "10"), "Z", "Y", "Y", "X")

	attrs := Attribute(mustDerive(trades), BySetup, 1)
	require.Len(t, attrs, 3)

	// equal P&L: more trades first, then label ascending
	assert.Equal(t, []string{"Y", "X", "Z"}, []string{attrs[0].Setup, attrs[1].Setup, attrs[2].Setup})
}

func TestAttribute_ShareUndefinedWhenOverallZero(t *testing.T) {
	trades := withSetup(sequence("10", "-10"), "A", "B")

	for _, a := range Attribute(mustDerive(trades), BySetup, 1) {
		assert.False(t, a.PnLShare.Valid, a.Setup)
	}
}

func TestAttribute_UnorderedPartitionHasNoDrawdown(t *testing.T) {
	trades := withSetup(sequence("10", "-4"), "A")
	trades[0], trades[1] = trades[1], trades[0]

	attrs := Attribute(mustDerive(trades), BySetup, 1)
	require.Len(t, attrs, 1)
	assert.False(t, attrs[0].MaxDrawdown.Valid)
	assert.Equal(t, "6", attrs[0].Summary.TotalPnL.String())
}

func TestAttribute_WorkerCountDoesNotChangeResult(t *testing.T) {
	pnls := make([]string, 60)
	setups := make([]string, 0, 7)
	for i := range pnls {
		pnls[i] = fmt.Sprintf("%d.%d", (i*37)%41-20, i%10)
	}
	for i := 0; i < 7; i++ {
		setups = append(setups, fmt.Sprintf("setup-%d", i))
	}
	derived := mustDerive(withSetup(sequence(pnls...), setups...))

	want, err := json.Marshal(Attribute(derived, BySetup, 1))
	require.NoError(t, err)

	for _, workers := range []int{0, 2, 4, 16} {
		got, err := json.Marshal(Attribute(derived, BySetup, workers))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), "workers=%d", workers)
	}
}

func TestAttribute_CustomLabel(t *testing.T) {
	trades := sequence("1", "2", "-3")
	trades[2].Symbol = "MSFT"

	bySymbol := func(d DerivedTrade) string { return d.Symbol }
	attrs := Attribute(mustDerive(trades), bySymbol, 1)

	require.Len(t, attrs, 2)
	assert.Equal(t, "AAPL", attrs[0].Setup)
	assert.Equal(t, 2, attrs[0].Summary.TotalTrades)
}

func TestAttribute_Empty(t *testing.T) {
	attrs := Attribute(nil, BySetup, 4)
	assert.NotNil(t, attrs)
	assert.Empty(t, attrs)
}
