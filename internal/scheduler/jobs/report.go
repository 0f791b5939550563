package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/tradelens/backend/internal/analytics"
	"github.com/wonny/tradelens/backend/internal/contracts"
	"github.com/wonny/tradelens/backend/internal/scheduler"
	"github.com/wonny/tradelens/backend/pkg/logger"
	"github.com/wonny/tradelens/backend/pkg/redis"
)

// ReportSaver persists a computed report and returns its id
type ReportSaver interface {
	SaveReport(ctx context.Context, report *analytics.Report, generatedAt time.Time) (int64, error)
}

// ReportPublisher makes a computed report visible to other consumers
type ReportPublisher interface {
	PublishReport(ctx context.Context, notice ReportNotice, report *analytics.Report) error
}

// ReportNotice is the pub/sub message announcing a new report
type ReportNotice struct {
	ReportID    int64     `json:"report_id,omitempty"`
	Scope       string    `json:"scope"`
	GeneratedAt time.Time `json:"generated_at"`
	TotalTrades int       `json:"total_trades"`
	TotalPnL    string    `json:"total_pnl"`
	NetPnL      string    `json:"net_pnl"`
}

// ReportJob computes the performance report on schedule
// ⭐ SSOT: 정기 성과 리포트는 이 Job에서만
type ReportJob struct {
	store     contracts.TradeStore
	engine    *analytics.Engine
	saver     ReportSaver     // optional
	publisher ReportPublisher // optional
	schedule  string
	setup     string // empty = all setups
	logger    *logger.Logger
	now       func() time.Time
}

// NewReportJob creates a new report job; saver and publisher may be nil
func NewReportJob(store contracts.TradeStore, engine *analytics.Engine, saver ReportSaver, publisher ReportPublisher, schedule string, log *logger.Logger) *ReportJob {
	return &ReportJob{
		store:     store,
		engine:    engine,
		saver:     saver,
		publisher: publisher,
		schedule:  schedule,
		logger:    log,
		now:       time.Now,
	}
}

// ForSetup restricts the job to one setup label
func (j *ReportJob) ForSetup(setup string) *ReportJob {
	j.setup = setup
	return j
}

// Name returns the job name
func (j *ReportJob) Name() string {
	if j.setup != "" {
		return "performance_report:" + j.setup
	}
	return "performance_report"
}

// Schedule returns the cron schedule
func (j *ReportJob) Schedule() string {
	return j.schedule
}

// Scope is "all" or the setup label the job is restricted to
func (j *ReportJob) Scope() string {
	if j.setup != "" {
		return j.setup
	}
	return "all"
}

// Run loads trades, computes the report, then saves and publishes it.
// The outcome carries the scope, the stored report id and the trade count.
func (j *ReportJob) Run(ctx context.Context) (scheduler.Outcome, error) {
	generatedAt := j.now().UTC()
	log := j.logger.WithField("scope", j.Scope())

	trades, err := j.store.List(ctx, contracts.TradeQuery{Setup: j.setup})
	if err != nil {
		return scheduler.Outcome{}, fmt.Errorf("list trades: %w", err)
	}

	var filter contracts.Filter
	if j.setup != "" {
		setup := j.setup
		filter.Setup = &setup
	}

	report, err := j.engine.Report(trades, filter)
	if err != nil {
		return scheduler.Outcome{}, fmt.Errorf("compute report: %w", err)
	}

	notice := ReportNotice{
		Scope:       j.Scope(),
		GeneratedAt: generatedAt,
		TotalTrades: report.Summary.TotalTrades,
		TotalPnL:    report.Summary.TotalPnL.String(),
		NetPnL:      report.Summary.NetPnL.String(),
	}

	if j.saver != nil {
		id, err := j.saver.SaveReport(ctx, report, generatedAt)
		if err != nil {
			return scheduler.Outcome{}, fmt.Errorf("save report: %w", err)
		}
		notice.ReportID = id
	}

	if j.publisher != nil {
		if err := j.publisher.PublishReport(ctx, notice, report); err != nil {
			// the report is already stored; a failed publish does not fail the run
			log.WithError(err).Warn("Failed to publish report")
		}
	}

	log.WithFields(map[string]interface{}{
		"report_id": notice.ReportID,
		"trades":    notice.TotalTrades,
		"total_pnl": notice.TotalPnL,
	}).Info("Performance report generated")

	return scheduler.Outcome{
		Scope:    notice.Scope,
		ReportID: notice.ReportID,
		Trades:   notice.TotalTrades,
	}, nil
}

// RedisPublisher caches the latest report per scope and announces it on
// redis.ReportChannel
type RedisPublisher struct {
	client *redis.Client
	cache  *redis.Cache
	ttl    time.Duration
}

// NewRedisPublisher creates a publisher; a disabled client makes it a no-op
func NewRedisPublisher(client *redis.Client, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		cache:  redis.NewCache(client, "tradelens"),
		ttl:    ttl,
	}
}

// PublishReport stores the report under its scope key and sends the notice
func (p *RedisPublisher) PublishReport(ctx context.Context, notice ReportNotice, report *analytics.Report) error {
	if !p.client.Enabled() {
		return nil
	}

	if err := p.cache.Set(ctx, redis.LatestReportKey(notice.Scope), report, p.ttl); err != nil {
		return fmt.Errorf("cache report: %w", err)
	}
	for _, a := range report.Attribution {
		if err := p.cache.Set(ctx, redis.AttributionKey(a.Setup), a, p.ttl); err != nil {
			return fmt.Errorf("cache attribution %s: %w", a.Setup, err)
		}
	}

	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	if _, err := p.client.Publish(ctx, redis.ReportChannel, payload); err != nil {
		return err
	}
	return nil
}
