package refresh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tvbatch/internal/surface/fake"
	"github.com/wonny/tvbatch/pkg/logger"
)

func TestWait_NoticeAppears(t *testing.T) {
	s := fake.NewCollection("x")
	s.OutdatedAfterPolls = 2

	syncer := NewSynchronizer(s, logger.Nop()).WithInterval(time.Millisecond)
	refreshed, err := syncer.Wait(context.Background(), time.Second, 0)
	require.NoError(t, err)

	assert.True(t, refreshed)
	assert.Equal(t, 1, s.RefreshConfirmations())
}

func TestWait_TimeoutIsNotAnError(t *testing.T) {
	s := fake.NewCollection("x")

	syncer := NewSynchronizer(s, logger.Nop()).WithInterval(5 * time.Millisecond)
	start := time.Now()
	refreshed, err := syncer.Wait(context.Background(), 30*time.Millisecond, time.Hour)
	require.NoError(t, err)

	assert.False(t, refreshed)
	assert.Equal(t, 0, s.RefreshConfirmations())
	assert.Less(t, time.Since(start), time.Second)
}

func TestWait_ZeroTimeoutPollsOnce(t *testing.T) {
	s := fake.NewCollection("x")
	s.OutdatedAfterPolls = 0

	refreshed, err := NewSynchronizer(s, logger.Nop()).Wait(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.True(t, refreshed)
}

func TestWait_CancelDuringPostConfirm(t *testing.T) {
	s := fake.NewCollection("x")
	s.OutdatedAfterPolls = 0

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	refreshed, err := NewSynchronizer(s, logger.Nop()).Wait(ctx, time.Second, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, refreshed)
}
