package contracts

import (
	"context"
	"errors"
	"sort"
	"time"
)

// DateRange is an inclusive window on trade close time.
// A zero Start or End leaves that side open.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether ts falls inside the range (inclusive on both ends)
func (r DateRange) Contains(ts time.Time) bool {
	if !r.Start.IsZero() && ts.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && ts.After(r.End) {
		return false
	}
	return true
}

// Filter selects the trades a report is computed over
type Filter struct {
	DateRange *DateRange `json:"date_range,omitempty"`
	Setup     *string    `json:"setup,omitempty"` // exact match on the setup label
}

// Matches reports whether the trade passes the filter.
// The setup filter compares against SetupLabel, so UncategorizedLabel selects
// trades without a setup.
func (f Filter) Matches(t Trade) bool {
	if f.DateRange != nil && !f.DateRange.Contains(t.ClosedAt()) {
		return false
	}
	if f.Setup != nil && t.SetupLabel() != *f.Setup {
		return false
	}
	return true
}

// Store errors
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a record with the same id already exists.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// TradeQuery narrows trade retrieval at the store
type TradeQuery struct {
	From  time.Time // inclusive, zero = open
	To    time.Time // inclusive, zero = open
	Setup string    // exact setup label, empty = all
}

// TradeStore provides ordered access to closed trades.
// ⭐ SSOT: 거래 조회 인터페이스는 여기서만 정의
type TradeStore interface {
	// List returns trades ordered by close time ASC, id ASC.
	List(ctx context.Context, q TradeQuery) ([]Trade, error)

	// GetByID returns a single trade. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*Trade, error)
}

// Matches reports whether the trade passes the query bounds
func (q TradeQuery) Matches(t Trade) bool {
	closed := t.ClosedAt()
	if !q.From.IsZero() && closed.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && closed.After(q.To) {
		return false
	}
	if q.Setup != "" && t.SetupLabel() != q.Setup {
		return false
	}
	return true
}

// SortTrades orders trades by close time ASC, id ASC in place
func SortTrades(trades []Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i].ClosedAt(), trades[j].ClosedAt()
		if !a.Equal(b) {
			return a.Before(b)
		}
		return trades[i].ID < trades[j].ID
	})
}
