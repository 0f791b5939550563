package csvfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

const sampleCSV = `id,symbol,direction,entry_price,stop_price,exit_price,quantity,fees,trade_time,exit_time,setup
t2,AAPL,Long,100,95,110,10,1.5,2024-03-05T09:30:00Z,2024-03-05T15:00:00Z,breakout
t1,TSLA,sell,200,210,190,5,,2024-03-04 10:00:00,2024-03-04 11:30:00,
,BTCUSD,BUY,60000,59000,59500,0.1,2,2024-03-06,,pullback
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRead(t *testing.T) {
	trades, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, trades, 3)

	first := trades[0]
	assert.Equal(t, "t2", first.ID)
	assert.Equal(t, contracts.DirectionLong, first.Direction)
	assert.True(t, first.Entry.Equal(decimal.NewFromInt(100)))
	assert.True(t, first.Fees.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC), first.ExitTime)
	assert.Equal(t, "breakout", first.Setup)

	second := trades[1]
	assert.Equal(t, contracts.DirectionShort, second.Direction)
	assert.True(t, second.Fees.IsZero())
	assert.Equal(t, time.Date(2024, 3, 4, 11, 30, 0, 0, time.UTC), second.ExitTime)
	assert.Equal(t, contracts.UncategorizedLabel, second.SetupLabel())

	third := trades[2]
	assert.NotEmpty(t, third.ID)
	assert.True(t, third.ExitTime.IsZero())
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), third.ClosedAt())
}

func TestRead_GeneratedIDsAreStable(t *testing.T) {
	a, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	b, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, a[2].ID, b[2].ID)
	assert.Len(t, a[2].ID, 36)
}

func TestRead_Errors(t *testing.T) {
	header := "id,symbol,direction,entry_price,stop_price,exit_price,quantity,fees,trade_time,exit_time,setup\n"

	tests := []struct {
		name string
		row  string
		want string
	}{
		{"bad direction", "x,AAPL,FLAT,1,1,1,1,0,2024-01-01,,\n", "direction"},
		{"bad price", "x,AAPL,LONG,abc,1,1,1,0,2024-01-01,,\n", "entry_price"},
		{"missing quantity", "x,AAPL,LONG,1,1,1,,0,2024-01-01,,\n", "quantity"},
		{"bad time", "x,AAPL,LONG,1,1,1,1,0,yesterday,,\n", "trade_time"},
		{"bad exit time", "x,AAPL,LONG,1,1,1,1,0,2024-01-01,later,\n", "exit_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(header + tt.row))
			require.Error(t, err)
			assert.ErrorIs(t, err, contracts.ErrInvalidInput)
			assert.Contains(t, err.Error(), "line 2")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpen(t *testing.T) {
	store, err := Open(writeFile(t, sampleCSV))
	require.NoError(t, err)
	ctx := context.Background()

	trades, err := store.List(ctx, contracts.TradeQuery{})
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "t1", trades[0].ID, "ordered by close time")
	assert.Equal(t, "t2", trades[1].ID)

	got, err := store.GetByID(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)

	filtered, err := store.List(ctx, contracts.TradeQuery{Setup: "pullback"})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestOpen_DuplicateIDs(t *testing.T) {
	content := sampleCSV + "t1,TSLA,SHORT,1,2,1,1,0,2024-03-07,,\n"

	_, err := Open(writeFile(t, content))
	assert.ErrorIs(t, err, contracts.ErrDuplicateKey)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestWriteThenRead(t *testing.T) {
	trades, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, trades))

	again, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, again, len(trades))
	for i := range trades {
		assert.Equal(t, trades[i].ID, again[i].ID)
		assert.True(t, trades[i].Exit.Equal(again[i].Exit))
		assert.True(t, trades[i].ClosedAt().Equal(again[i].ClosedAt()))
		assert.Equal(t, trades[i].Setup, again[i].Setup)
	}
}
