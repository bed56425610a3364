package batch

import (
	"context"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/pkg/logger"
)

// Notifier receives exactly one notification per finished run
type Notifier interface {
	Notify(ctx context.Context, summary *contracts.RunSummary)
}

// LogNotifier reports run outcomes through the logger
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// Notify logs the summary line; non-completed runs are logged as errors
func (n *LogNotifier) Notify(ctx context.Context, s *contracts.RunSummary) {
	log := n.logger.ForRun(s.RunID).WithFields(map[string]interface{}{
		"status":      string(s.Status),
		"source":      s.Source.String(),
		"items":       len(s.Items),
		"kept":        s.Kept,
		"dropped":     s.Dropped,
		"deleted":     s.Deleted,
		"neither":     s.Neither,
		"destination": s.Destination,
		"duration_ms": s.Duration().Milliseconds(),
	})

	switch s.Status {
	case contracts.RunCompleted:
		log.Info("Batch run finished")
	case contracts.RunCancelled:
		log.Warn("Batch run cancelled")
	default:
		log.WithField("error", s.Error).Error("Batch run failed")
	}
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, summary *contracts.RunSummary)

// Notify implements Notifier
func (f NotifierFunc) Notify(ctx context.Context, summary *contracts.RunSummary) {
	f(ctx, summary)
}
