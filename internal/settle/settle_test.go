package settle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitElapses(t *testing.T) {
	start := time.Now()
	if err := Wait(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Wait() returned early")
	}
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestWaitZero(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("Wait(0) error = %v", err)
	}
}
