package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled analytics work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run executes the job once and reports what it produced
	Run(ctx context.Context) (Outcome, error)

	// Schedule returns the cron schedule expression, seconds first
	// Examples: "0 0 18 * * *" (every day at 6 PM)
	//           "@daily", "@every 1h"
	Schedule() string
}

// Outcome is what a successful run produced. Report jobs fill Scope,
// ReportID and Trades; retention jobs fill Pruned.
type Outcome struct {
	Scope    string `json:"scope,omitempty"`
	ReportID int64  `json:"report_id,omitempty"` // zero when the report was not stored
	Trades   int    `json:"trades,omitempty"`
	Pruned   int64  `json:"pruned,omitempty"`
}

// RunResult records one run of a job, retries included
type RunResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Outcome   Outcome       `json:"outcome"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory bounds the results kept per job
const maxHistory = 100

// RunHistory keeps the most recent runs of one job, oldest first
type RunHistory struct {
	Results []RunResult
}

// Add appends a run, dropping the oldest beyond maxHistory
func (h *RunHistory) Add(result RunResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > maxHistory {
		h.Results = h.Results[len(h.Results)-maxHistory:]
	}
}

// Latest returns a copy of the last n runs
func (h *RunHistory) Latest(n int) []RunResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	out := make([]RunResult, n)
	copy(out, h.Results[len(h.Results)-n:])
	return out
}

// LastSuccess returns the newest successful run
func (h *RunHistory) LastSuccess() (RunResult, bool) {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if h.Results[i].Success {
			return h.Results[i], true
		}
	}
	return RunResult{}, false
}

// Failures counts the failed runs
func (h *RunHistory) Failures() int {
	n := 0
	for _, r := range h.Results {
		if !r.Success {
			n++
		}
	}
	return n
}

// SuccessRate is the share of successful runs in [0, 1]; 0 with no runs
func (h *RunHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(len(h.Results)-h.Failures()) / float64(len(h.Results))
}
