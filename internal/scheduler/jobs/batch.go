package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/runconfig"
	"github.com/wonny/tvbatch/internal/scheduler"
	"github.com/wonny/tvbatch/pkg/logger"
)

// BatchRunner runs one batch synchronously
type BatchRunner interface {
	Run(ctx context.Context, cfg contracts.RunConfig) (*contracts.RunSummary, error)
}

// BatchJob runs the backtest batch on a cron schedule with the stored configuration
// ⭐ SSOT: 배치 실행 스케줄은 이 Job에서만
type BatchJob struct {
	runner   BatchRunner
	provider runconfig.Provider
	schedule string
	logger   *logger.Logger
}

// NewBatchJob creates a new batch job
func NewBatchJob(runner BatchRunner, provider runconfig.Provider, schedule string, log *logger.Logger) *BatchJob {
	return &BatchJob{
		runner:   runner,
		provider: provider,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *BatchJob) Name() string {
	return "backtest_batch"
}

// Schedule returns the configured cron expression (with seconds)
func (j *BatchJob) Schedule() string {
	return j.schedule
}

// Run executes one batch. A run already in progress makes this activation a
// skip; a delivery failure is logged but not retried since the items were
// already processed.
func (j *BatchJob) Run(ctx context.Context) error {
	cfg, err := j.provider.Get(ctx)
	if err != nil {
		return fmt.Errorf("load run config: %w", err)
	}

	j.logger.WithField("strategy", cfg.StrategyName).Info("Starting scheduled batch run")

	summary, err := j.runner.Run(ctx, cfg)
	if err != nil {
		if errors.Is(err, contracts.ErrRunInProgress) {
			return fmt.Errorf("%w: %v", scheduler.ErrSkipped, err)
		}
		return fmt.Errorf("batch run: %w", err)
	}

	if summary.Status == contracts.RunDeliveryFailed {
		j.logger.WithFields(map[string]interface{}{
			"run_id":      summary.RunID,
			"destination": summary.Destination,
			"error":       summary.Error,
		}).Warn("Scheduled batch finished but export failed")
	}

	return nil
}
