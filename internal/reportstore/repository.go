package reportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/wonny/tradelens/backend/internal/analytics"
	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/database"
)

// StoredReport is a persisted report with its storage metadata
type StoredReport struct {
	ID          int64            `json:"id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Report      analytics.Report `json:"report"`
}

// AttributionRow is the flattened per-setup line kept next to each report
type AttributionRow struct {
	ReportID     int64               `json:"report_id"`
	Setup        string              `json:"setup"`
	Rank         int                 `json:"rank"`
	TotalTrades  int                 `json:"total_trades"`
	TotalPnL     decimal.Decimal     `json:"total_pnl"`
	WinRate      float64             `json:"win_rate"`
	ProfitFactor decimal.NullDecimal `json:"profit_factor"`
	AvgR         decimal.NullDecimal `json:"avg_r"`
	MaxDrawdown  decimal.NullDecimal `json:"max_drawdown"`
	PnLShare     decimal.NullDecimal `json:"pnl_share"`
}

// ReportHeader is the summary columns of a stored report, without the snapshot
type ReportHeader struct {
	ID           int64               `json:"id"`
	GeneratedAt  time.Time           `json:"generated_at"`
	TotalTrades  int                 `json:"total_trades"`
	TotalPnL     decimal.Decimal     `json:"total_pnl"`
	NetPnL       decimal.Decimal     `json:"net_pnl"`
	WinRate      float64             `json:"win_rate"`
	ProfitFactor decimal.NullDecimal `json:"profit_factor"`
	AvgR         decimal.NullDecimal `json:"avg_r"`
	MaxDrawdown  decimal.Decimal     `json:"max_drawdown"`
}

// Repository handles report persistence
// ⭐ SSOT: 리포트 저장/조회는 여기서만
type Repository struct {
	db *database.DB
}

// NewRepository creates a new report repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// SaveReport stores the report snapshot and its attribution rows atomically
// and returns the new report id
func (r *Repository) SaveReport(ctx context.Context, report *analytics.Report, generatedAt time.Time) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}
	filterJSON, err := json.Marshal(report.Filter)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal filter: %w", err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	s := report.Summary
	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO analytics.performance_reports (
			generated_at, filter, total_trades, total_pnl, net_pnl,
			win_rate, profit_factor, avg_r, max_drawdown, report
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		generatedAt, filterJSON, s.TotalTrades, s.TotalPnL, s.NetPnL,
		s.WinRate, s.ProfitFactor, s.AvgRMultiple, report.Drawdown.MaxDrawdownAbs, reportJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}

	if err := insertAttributions(ctx, tx, id, report.Attribution); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit report: %w", err)
	}
	return id, nil
}

// GetLatestReport returns the most recently generated report.
// Returns ErrNotFound when nothing was saved yet.
func (r *Repository) GetLatestReport(ctx context.Context) (*StoredReport, error) {
	return r.getReport(ctx, `
		SELECT id, generated_at, report
		FROM analytics.performance_reports
		ORDER BY generated_at DESC, id DESC
		LIMIT 1
	`)
}

// GetReport returns a report by id. Returns ErrNotFound if not exists.
func (r *Repository) GetReport(ctx context.Context, id int64) (*StoredReport, error) {
	return r.getReport(ctx, `
		SELECT id, generated_at, report
		FROM analytics.performance_reports
		WHERE id = $1
	`, id)
}

func (r *Repository) getReport(ctx context.Context, query string, args ...interface{}) (*StoredReport, error) {
	var (
		stored     StoredReport
		reportJSON []byte
	)

	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&stored.ID, &stored.GeneratedAt, &reportJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	if err := json.Unmarshal(reportJSON, &stored.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &stored, nil
}

// ListReports returns report headers generated within [from, to], newest first
func (r *Repository) ListReports(ctx context.Context, from, to time.Time) ([]ReportHeader, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, generated_at, total_trades, total_pnl, net_pnl,
		       win_rate, profit_factor, avg_r, max_drawdown
		FROM analytics.performance_reports
		WHERE generated_at BETWEEN $1 AND $2
		ORDER BY generated_at DESC, id DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	headers := make([]ReportHeader, 0)
	for rows.Next() {
		var h ReportHeader
		err := rows.Scan(
			&h.ID, &h.GeneratedAt, &h.TotalTrades, &h.TotalPnL, &h.NetPnL,
			&h.WinRate, &h.ProfitFactor, &h.AvgR, &h.MaxDrawdown,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return headers, nil
}

// SaveAttribution replaces the attribution rows of a stored report
func (r *Repository) SaveAttribution(ctx context.Context, reportID int64, attrs []analytics.SetupAttribution) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM analytics.setup_attributions WHERE report_id = $1`, reportID); err != nil {
		return fmt.Errorf("failed to clear attribution: %w", err)
	}
	if err := insertAttributions(ctx, tx, reportID, attrs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit attribution: %w", err)
	}
	return nil
}

// GetAttribution returns the attribution rows of a report, by rank
func (r *Repository) GetAttribution(ctx context.Context, reportID int64) ([]AttributionRow, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT report_id, setup, rank, total_trades, total_pnl, win_rate,
		       profit_factor, avg_r, max_drawdown, pnl_share
		FROM analytics.setup_attributions
		WHERE report_id = $1
		ORDER BY rank ASC
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attribution: %w", err)
	}
	defer rows.Close()

	result := make([]AttributionRow, 0)
	for rows.Next() {
		var a AttributionRow
		err := rows.Scan(
			&a.ReportID, &a.Setup, &a.Rank, &a.TotalTrades, &a.TotalPnL, &a.WinRate,
			&a.ProfitFactor, &a.AvgR, &a.MaxDrawdown, &a.PnLShare,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribution: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attribution: %w", err)
	}
	return result, nil
}

func insertAttributions(ctx context.Context, tx pgx.Tx, reportID int64, attrs []analytics.SetupAttribution) error {
	for _, a := range attrs {
		_, err := tx.Exec(ctx, `
			INSERT INTO analytics.setup_attributions (
				report_id, setup, rank, total_trades, total_pnl, win_rate,
				profit_factor, avg_r, max_drawdown, pnl_share
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			reportID, a.Setup, a.Rank, a.Summary.TotalTrades, a.Summary.TotalPnL, a.Summary.WinRate,
			a.Summary.ProfitFactor, a.Summary.AvgRMultiple, a.MaxDrawdown, a.PnLShare,
		)
		if err != nil {
			return fmt.Errorf("failed to save attribution for %s: %w", a.Setup, err)
		}
	}
	return nil
}

// DeleteReportsBefore removes reports generated before cutoff, with their
// attribution rows, and returns how many reports were removed
func (r *Repository) DeleteReportsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		DELETE FROM analytics.performance_reports
		WHERE generated_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reports: %w", err)
	}
	return tag.RowsAffected(), nil
}
