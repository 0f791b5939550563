package memory

import (
	"context"
	"sync"

	"github.com/wonny/tradelens/backend/internal/contracts"
)

// Store is an in-memory implementation of contracts.TradeStore.
// Used by tests and by CSV imports that are analyzed without a database.
type Store struct {
	mu   sync.RWMutex
	data map[string]contracts.Trade // keyed by trade id
}

// NewStore creates a new in-memory trade store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]contracts.Trade),
	}
}

// Compile-time interface check.
var _ contracts.TradeStore = (*Store)(nil)

// Insert adds a new trade. Returns ErrDuplicateKey if the id exists.
func (s *Store) Insert(_ context.Context, t contracts.Trade) error {
	if t.ID == "" {
		return contracts.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return contracts.ErrDuplicateKey
	}
	s.data[t.ID] = t
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *Store) InsertBulk(_ context.Context, trades []contracts.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t.ID == "" {
			return contracts.ErrInvalidInput
		}
		if _, exists := s.data[t.ID]; exists {
			return contracts.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.ID]; exists {
			return contracts.ErrDuplicateKey
		}
		batchKeys[t.ID] = struct{}{}
	}

	for _, t := range trades {
		s.data[t.ID] = t
	}
	return nil
}

// GetByID retrieves a trade by its id. Returns ErrNotFound if not exists.
func (s *Store) GetByID(_ context.Context, id string) (*contracts.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, contracts.ErrNotFound
	}
	return &t, nil
}

// List returns matching trades ordered by close time ASC, id ASC.
func (s *Store) List(ctx context.Context, q contracts.TradeQuery) ([]contracts.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	result := make([]contracts.Trade, 0, len(s.data))
	for _, t := range s.data {
		if q.Matches(t) {
			result = append(result, t)
		}
	}
	s.mu.RUnlock()

	contracts.SortTrades(result)
	return result, nil
}

// Count returns the number of stored trades.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
