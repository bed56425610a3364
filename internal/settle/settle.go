// Package settle holds the bounded waits used between surface interactions.
package settle

import (
	"context"
	"time"
)

// Wait blocks for d or until ctx is done. Every suspension point of a run goes
// through here so cancellation is observed everywhere.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
