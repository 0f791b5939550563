package csvfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/tradestore/memory"
)

// idNamespace seeds deterministic ids for rows exported without one
var idNamespace = uuid.MustParse("6f1c2d0e-3b7a-5c4e-9a21-7d5e0b8f4c31")

// timeLayouts are tried in order; layouts without a zone are read as UTC
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Row is one line of a trade export
type Row struct {
	ID        string `csv:"id"`
	Symbol    string `csv:"symbol"`
	Direction string `csv:"direction"`
	Entry     string `csv:"entry_price"`
	Stop      string `csv:"stop_price"`
	Exit      string `csv:"exit_price"`
	Quantity  string `csv:"quantity"`
	Fees      string `csv:"fees"`
	TradeTime string `csv:"trade_time"`
	ExitTime  string `csv:"exit_time"`
	Setup     string `csv:"setup"`
}

// Store is a read-only contracts.TradeStore loaded from a CSV export
type Store struct {
	path string
	mem  *memory.Store
}

// Compile-time interface check.
var _ contracts.TradeStore = (*Store)(nil)

// Open loads every row of the file at path
func Open(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trades csv: %w", err)
	}
	defer f.Close()

	trades, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	mem := memory.NewStore()
	if err := mem.InsertBulk(context.Background(), trades); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return &Store{path: path, mem: mem}, nil
}

// Path returns the file the store was loaded from
func (s *Store) Path() string {
	return s.path
}

// List returns matching trades ordered by close time ASC, id ASC.
func (s *Store) List(ctx context.Context, q contracts.TradeQuery) ([]contracts.Trade, error) {
	return s.mem.List(ctx, q)
}

// GetByID retrieves a trade by its id. Returns ErrNotFound if not exists.
func (s *Store) GetByID(ctx context.Context, id string) (*contracts.Trade, error) {
	return s.mem.GetByID(ctx, id)
}

// Read parses a CSV export into trades, in file order.
// Numeric domain checks are left to the analytics engine; Read only
// rejects values it cannot parse.
func Read(r io.Reader) ([]contracts.Trade, error) {
	var rows []*Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	trades := make([]contracts.Trade, 0, len(rows))
	for i, row := range rows {
		t, err := row.toTrade()
		if err != nil {
			// header is line 1
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// Write exports trades in the column layout Read accepts
func Write(w io.Writer, trades []contracts.Trade) error {
	rows := make([]*Row, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, fromTrade(t))
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func (r *Row) toTrade() (contracts.Trade, error) {
	var (
		t   contracts.Trade
		err error
		ok  bool
	)

	t.Symbol = strings.TrimSpace(r.Symbol)
	t.Setup = strings.TrimSpace(r.Setup)

	if t.Direction, ok = contracts.ParseDirection(r.Direction); !ok {
		return t, fmt.Errorf("direction %q: %w", r.Direction, contracts.ErrInvalidInput)
	}

	amounts := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"entry_price", r.Entry, &t.Entry},
		{"stop_price", r.Stop, &t.Stop},
		{"exit_price", r.Exit, &t.Exit},
		{"quantity", r.Quantity, &t.Quantity},
		{"fees", r.Fees, &t.Fees},
	}
	for _, a := range amounts {
		raw := strings.TrimSpace(a.raw)
		if raw == "" && a.name == "fees" {
			continue
		}
		if *a.dst, err = decimal.NewFromString(raw); err != nil {
			return t, fmt.Errorf("%s %q: %w", a.name, a.raw, contracts.ErrInvalidInput)
		}
	}

	if t.TradeTime, err = parseTime(r.TradeTime); err != nil {
		return t, fmt.Errorf("trade_time %q: %w", r.TradeTime, contracts.ErrInvalidInput)
	}
	if strings.TrimSpace(r.ExitTime) != "" {
		if t.ExitTime, err = parseTime(r.ExitTime); err != nil {
			return t, fmt.Errorf("exit_time %q: %w", r.ExitTime, contracts.ErrInvalidInput)
		}
	}

	t.ID = strings.TrimSpace(r.ID)
	if t.ID == "" {
		t.ID = contentID(r)
	}
	return t, nil
}

func fromTrade(t contracts.Trade) *Row {
	row := &Row{
		ID:        t.ID,
		Symbol:    t.Symbol,
		Direction: string(t.Direction),
		Entry:     t.Entry.String(),
		Stop:      t.Stop.String(),
		Exit:      t.Exit.String(),
		Quantity:  t.Quantity.String(),
		Fees:      t.Fees.String(),
		TradeTime: t.TradeTime.UTC().Format(time.RFC3339Nano),
		Setup:     t.Setup,
	}
	if !t.ExitTime.IsZero() {
		row.ExitTime = t.ExitTime.UTC().Format(time.RFC3339Nano)
	}
	return row
}

// contentID derives a stable id from the row's values, so re-reading the
// same export yields the same ids
func contentID(r *Row) string {
	key := strings.Join([]string{
		r.Symbol, r.Direction, r.Entry, r.Stop, r.Exit,
		r.Quantity, r.Fees, r.TradeTime, r.ExitTime, r.Setup,
	}, "|")
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range timeLayouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
