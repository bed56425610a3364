// Package refresh waits for the surface to finish recomputing a report.
package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/settle"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/pkg/logger"
)

// Defaults used by the batch controller
const (
	PollInterval           = 300 * time.Millisecond
	DefaultAppearTimeout   = 3 * time.Second
	DefaultPostConfirmWait = 10 * time.Second
)

// Synchronizer polls for the "report outdated" notice and confirms it
type Synchronizer struct {
	report   surface.Report
	interval time.Duration
	logger   *logger.Logger
}

// NewSynchronizer creates a synchronizer
func NewSynchronizer(report surface.Report, log *logger.Logger) *Synchronizer {
	return &Synchronizer{
		report:   report,
		interval: PollInterval,
		logger:   log,
	}
}

// WithInterval overrides the poll interval
func (s *Synchronizer) WithInterval(d time.Duration) *Synchronizer {
	s.interval = d
	return s
}

// Wait polls until the outdated notice shows up or appear elapses. When it
// shows up its confirm action is triggered and Wait blocks for postConfirm.
// It returns true only when a refresh was triggered. A timeout is not an
// error; the returned error is set only when ctx is done.
func (s *Synchronizer) Wait(ctx context.Context, appear, postConfirm time.Duration) (bool, error) {
	deadline := time.Now().Add(appear)

	for {
		shown, err := s.report.OutdatedNotice(ctx)
		if err != nil && !errors.Is(err, surface.ErrAbsent) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			s.logger.WithError(err).Warn("Outdated notice probe failed")
		}

		if shown {
			if err := s.report.ConfirmOutdated(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return false, ctxErr
				}
				s.logger.WithError(err).Warn("Refresh confirm failed")
				return false, nil
			}
			if err := settle.Wait(ctx, postConfirm); err != nil {
				return false, err
			}
			return true, nil
		}

		if !time.Now().Before(deadline) {
			s.logger.WithError(contracts.ErrRefreshTimeout).
				WithField("timeout", appear.String()).
				Debug("No refresh notice, report assumed current")
			return false, nil
		}

		if err := settle.Wait(ctx, s.interval); err != nil {
			return false, err
		}
	}
}
