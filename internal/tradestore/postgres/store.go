package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/database"
)

// Store implements contracts.TradeStore on journal.trades.
// ⭐ SSOT: 거래 테이블 SQL은 여기서만
type Store struct {
	db *database.DB
}

// NewStore creates a new PostgreSQL trade store
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Compile-time interface check.
var _ contracts.TradeStore = (*Store)(nil)

const selectTrades = `
	SELECT
		t.id, t.symbol, t.direction,
		t.entry_price, t.stop_price, t.exit_price, t.quantity, t.fees,
		t.trade_time, t.exit_time, s.name
	FROM journal.trades t
	LEFT JOIN journal.setups s ON s.id = t.setup_id
`

const insertTrade = `
	INSERT INTO journal.trades (
		id, symbol, direction,
		entry_price, stop_price, exit_price, quantity, fees,
		trade_time, exit_time, setup_id
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

// List returns matching trades ordered by close time ASC, id ASC.
func (s *Store) List(ctx context.Context, q contracts.TradeQuery) ([]contracts.Trade, error) {
	var (
		where []string
		args  []interface{}
	)
	closedAt := "COALESCE(t.exit_time, t.trade_time)"

	if !q.From.IsZero() {
		args = append(args, q.From)
		where = append(where, fmt.Sprintf("%s >= $%d", closedAt, len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		where = append(where, fmt.Sprintf("%s <= $%d", closedAt, len(args)))
	}
	switch q.Setup {
	case "":
	case contracts.UncategorizedLabel:
		// a setup literally named Uncategorized shares the label of trades without one
		args = append(args, q.Setup)
		where = append(where, fmt.Sprintf("(t.setup_id IS NULL OR s.name = $%d)", len(args)))
	default:
		args = append(args, q.Setup)
		where = append(where, fmt.Sprintf("s.name = $%d", len(args)))
	}

	query := selectTrades
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + closedAt + " ASC, t.id ASC"

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]contracts.Trade, 0)
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		trades = append(trades, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trade rows: %w", err)
	}

	return trades, nil
}

// GetByID retrieves a trade by its id. Returns ErrNotFound if not exists.
func (s *Store) GetByID(ctx context.Context, id string) (*contracts.Trade, error) {
	row := s.db.Pool.QueryRow(ctx, selectTrades+" WHERE t.id = $1", id)

	t, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %s: %w", id, err)
	}
	return t, nil
}

// Insert adds a new trade, creating its setup on first use.
// Returns ErrDuplicateKey if the id exists.
func (s *Store) Insert(ctx context.Context, t contracts.Trade) error {
	return s.InsertBulk(ctx, []contracts.Trade{t})
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *Store) InsertBulk(ctx context.Context, trades []contracts.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	setupIDs := make(map[string]int)
	for _, t := range trades {
		if t.ID == "" || !t.Direction.Valid() {
			return contracts.ErrInvalidInput
		}

		var setupID *int
		if t.Setup != "" {
			id, ok := setupIDs[t.Setup]
			if !ok {
				if id, err = ensureSetup(ctx, tx, t.Setup); err != nil {
					return err
				}
				setupIDs[t.Setup] = id
			}
			setupID = &id
		}

		var exitTime *time.Time
		if !t.ExitTime.IsZero() {
			exitTime = &t.ExitTime
		}

		_, err := tx.Exec(ctx, insertTrade,
			t.ID, t.Symbol, string(t.Direction),
			t.Entry, t.Stop, t.Exit, t.Quantity, t.Fees,
			t.TradeTime, exitTime, setupID,
		)
		if err != nil {
			if database.IsDuplicateKey(err) {
				return contracts.ErrDuplicateKey
			}
			return fmt.Errorf("failed to insert trade %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}

// ListSetups returns every known setup name, ascending
func (s *Store) ListSetups(ctx context.Context) ([]string, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT name FROM journal.setups ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query setups: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan setup: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func ensureSetup(ctx context.Context, tx pgx.Tx, name string) (int, error) {
	var id int
	err := tx.QueryRow(ctx, `
		INSERT INTO journal.setups (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure setup %q: %w", name, err)
	}
	return id, nil
}

func scanTrade(row pgx.Row) (*contracts.Trade, error) {
	var (
		t         contracts.Trade
		direction string
		exitTime  *time.Time
		setup     *string
	)

	err := row.Scan(
		&t.ID, &t.Symbol, &direction,
		&t.Entry, &t.Stop, &t.Exit, &t.Quantity, &t.Fees,
		&t.TradeTime, &exitTime, &setup,
	)
	if err != nil {
		return nil, err
	}

	t.Direction = contracts.Direction(direction)
	t.TradeTime = t.TradeTime.UTC()
	if exitTime != nil {
		t.ExitTime = exitTime.UTC()
	}
	if setup != nil {
		t.Setup = *setup
	}
	return &t, nil
}
