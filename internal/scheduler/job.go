package scheduler

import (
	"context"
	"errors"
	"time"
)

// ErrSkipped marks a run the job declined to perform (e.g. a batch already
// in progress). Skipped runs are recorded but never retried.
var ErrSkipped = errors.New("job skipped")

// maxHistory is the number of results kept per job
const maxHistory = 100

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression (with seconds)
	// Examples: "0 0 16 * * *" (every day at 4 PM)
	//           "@daily", "@every 6h"
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Skipped   bool          `json:"skipped,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory stores job execution history
type JobHistory struct {
	Results []JobResult
}

// AddResult adds a job result to history
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)

	if len(h.Results) > maxHistory {
		h.Results = h.Results[len(h.Results)-maxHistory:]
	}
}

// GetLatestResults returns the latest N results
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}

	if n == 0 {
		return []JobResult{}
	}

	return append([]JobResult(nil), h.Results[len(h.Results)-n:]...)
}

// GetFailedResults returns all failed results; skipped runs are not failures
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, result := range h.Results {
		if !result.Success && !result.Skipped {
			failed = append(failed, result)
		}
	}
	return failed
}

// GetSuccessRate returns the success rate (0.0 - 1.0) over runs that were not skipped
func (h *JobHistory) GetSuccessRate() float64 {
	total, successCount := 0, 0
	for _, result := range h.Results {
		if result.Skipped {
			continue
		}
		total++
		if result.Success {
			successCount++
		}
	}

	if total == 0 {
		return 0.0
	}
	return float64(successCount) / float64(total)
}
