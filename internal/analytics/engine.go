package analytics

import (
	"fmt"
	"sort"

	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// Engine is the entry point for trade performance analysis.
// It holds no state between calls: Report depends only on its arguments.
// ⭐ SSOT: 분석 리포트 조립은 여기서만
type Engine struct {
	logger  *logger.Logger
	workers int
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger attaches a logger; without one the engine is silent
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithWorkers sets the attribution fan-out. Values below 1 mean unbounded.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// NewEngine creates a new analytics engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Report is the composed result of one analysis pass
type Report struct {
	Filter        contracts.Filter     `json:"filter"`
	Period        Period               `json:"period"`
	Summary       PerformanceSummary   `json:"summary"`
	Drawdown      DrawdownCurve        `json:"drawdown"`
	Streaks       StreakResult         `json:"streaks"`
	Attribution   []SetupAttribution   `json:"attribution"`
	Monthly       []MonthlyPerformance `json:"monthly"`
	Timing        TimingBreakdown      `json:"timing"`
	RDistribution RDistribution        `json:"r_distribution"`
	Sequence      SequenceStats        `json:"sequence"`
}

// Report filters trades, derives their economics and runs every analysis.
// The source slice is never modified. An empty selection produces the
// zero/undefined summary, not an error. Invalid trades fail with
// *InvalidTradeError.
func (e *Engine) Report(trades []contracts.Trade, filter contracts.Filter) (*Report, error) {
	selected := applyFilter(trades, filter)

	derived, err := DeriveAll(selected)
	if err != nil {
		return nil, fmt.Errorf("failed to derive trade economics: %w", err)
	}
	sortByClose(derived)

	drawdown, err := TrackDrawdown(derived)
	if err != nil {
		return nil, fmt.Errorf("failed to track drawdown: %w", err)
	}
	streaks, err := AnalyzeStreaks(derived)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze streaks: %w", err)
	}
	sequence, err := Sequence(derived)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze sequence: %w", err)
	}

	report := &Report{
		Filter:        filter,
		Period:        periodOf(derived),
		Summary:       Summarize(derived),
		Drawdown:      *drawdown,
		Streaks:       *streaks,
		Attribution:   Attribute(derived, BySetup, e.workers),
		Monthly:       MonthlyBreakdown(derived),
		Timing:        Timing(derived),
		RDistribution: RMultipleDistribution(derived),
		Sequence:      *sequence,
	}

	if e.logger != nil {
		e.logger.WithFields(map[string]interface{}{
			"selected":     len(derived),
			"source":       len(trades),
			"total_pnl":    report.Summary.TotalPnL.String(),
			"win_rate":     report.Summary.WinRate,
			"max_drawdown": report.Drawdown.MaxDrawdownAbs.String(),
			"setups":       len(report.Attribution),
		}).Debug("Performance report computed")
	}

	return report, nil
}

// applyFilter copies matching trades into a new slice
func applyFilter(trades []contracts.Trade, filter contracts.Filter) []contracts.Trade {
	out := make([]contracts.Trade, 0, len(trades))
	for _, t := range trades {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// sortByClose orders by close time ASC, id ASC so equal timestamps are stable
func sortByClose(trades []DerivedTrade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i].ClosedAt(), trades[j].ClosedAt()
		if !a.Equal(b) {
			return a.Before(b)
		}
		return trades[i].ID < trades[j].ID
	})
}
