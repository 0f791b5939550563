package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/tradelens/backend/internal/scheduler"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// ReportPruner deletes stored reports older than a cutoff
type ReportPruner interface {
	DeleteReportsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionJob prunes stored reports past the retention window
type RetentionJob struct {
	pruner    ReportPruner
	retention time.Duration
	schedule  string
	logger    *logger.Logger
	now       func() time.Time
}

// NewRetentionJob creates a new retention job
func NewRetentionJob(pruner ReportPruner, retention time.Duration, schedule string, log *logger.Logger) *RetentionJob {
	return &RetentionJob{
		pruner:    pruner,
		retention: retention,
		schedule:  schedule,
		logger:    log,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "report_retention"
}

// Schedule returns the cron schedule
func (j *RetentionJob) Schedule() string {
	return j.schedule
}

// Run deletes reports older than the retention window and reports how many went
func (j *RetentionJob) Run(ctx context.Context) (scheduler.Outcome, error) {
	cutoff := j.now().UTC().Add(-j.retention)

	removed, err := j.pruner.DeleteReportsBefore(ctx, cutoff)
	if err != nil {
		return scheduler.Outcome{}, fmt.Errorf("prune reports: %w", err)
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Old reports pruned")
	}
	return scheduler.Outcome{Pruned: removed}, nil
}
