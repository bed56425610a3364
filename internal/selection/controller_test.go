package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tvbatch/internal/discovery"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/internal/surface/fake"
	"github.com/wonny/tvbatch/pkg/logger"
)

func newController(s *fake.Surface) *Controller {
	sel := surface.DefaultSelectors()
	locator := discovery.NewResolver(s, s, sel, logger.Nop()).WithSettle(0)
	return NewController(s, s, locator, logger.Nop()).WithDelays(Delays{})
}

func TestEnsureSelected_FirstClick(t *testing.T) {
	s := fake.NewCollection("美股可交易", "NASDAQ:AAPL", "NASDAQ:MSFT")

	res, err := newController(s).EnsureSelected(context.Background(), "MSFT", nil, 1)
	require.NoError(t, err)

	assert.True(t, res.Selected)
	assert.Equal(t, "MSFT", s.Selected())
	assert.Equal(t, 1, s.Clicks("MSFT"))
	assert.Equal(t, []string{
		"unresolved -> attempting(1) [click]",
		"attempting(1) -> verified [click]",
	}, res.Path())
}

func TestEnsureSelected_AlreadySelected(t *testing.T) {
	s := fake.NewCollection("美股可交易", "NASDAQ:AAPL")
	s.Select("AAPL")

	res, err := newController(s).EnsureSelected(context.Background(), "AAPL", nil, 0)
	require.NoError(t, err)

	assert.True(t, res.Selected)
	assert.Equal(t, 0, s.Clicks("AAPL"))
	assert.Equal(t, StateVerified, res.Final())
}

func TestEnsureSelected_Fallbacks(t *testing.T) {
	tests := []struct {
		name         string
		ignored      int
		ordinal      int
		enterSelects bool
		wantSelected bool
		wantClicks   int
		wantStep     Step
	}{
		{"third click lands", 2, -1, false, true, 3, StepClick},
		{"position pass", 3, 1, false, true, 4, StepPosition},
		{"keyboard confirm", 10, -1, true, true, 3, StepKey},
		{"keyboard after position pass", 10, 1, true, true, 4, StepKey},
		{"everything fails", 10, 1, false, false, 4, StepKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fake.NewCollection("美股可交易", "NASDAQ:AAPL", "NASDAQ:MSFT", "NASDAQ:NVDA")
			s.IgnoreClicks["MSFT"] = tt.ignored
			s.EnterSelects = tt.enterSelects

			res, err := newController(s).EnsureSelected(context.Background(), "MSFT", nil, tt.ordinal)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSelected, res.Selected)
			assert.Equal(t, tt.wantClicks, s.Clicks("MSFT"))
			last := res.Trace[len(res.Trace)-1]
			assert.Equal(t, tt.wantStep, last.Step)
			if tt.wantSelected {
				assert.Equal(t, StateVerified, res.Final())
			} else {
				assert.Equal(t, StateFailed, res.Final())
			}
		})
	}
}

func TestEnsureSelected_Unresolvable(t *testing.T) {
	s := fake.NewCollection("美股可交易", "NASDAQ:AAPL", "NASDAQ:MSFT")
	s.Unresolvable["MSFT"] = true

	res, err := newController(s).EnsureSelected(context.Background(), "MSFT", nil, 1)
	require.NoError(t, err)

	assert.False(t, res.Selected)
	assert.False(t, res.Resolved)
	assert.Equal(t, 0, s.Clicks("MSFT"))
	assert.Equal(t, []string{"unresolved -> failed [no_row]"}, res.Path())
}

func TestEnsureSelected_OffscreenRowIsScrollSearched(t *testing.T) {
	s := fake.NewCollection("美股可交易", fake.GenerateSymbols("NASDAQ", 120)...)

	res, err := newController(s).EnsureSelected(context.Background(), "S090", nil, -1)
	require.NoError(t, err)

	assert.True(t, res.Selected)
	assert.Equal(t, "S090", s.Selected())
}

func TestEnsureSelected_StaleHintIsReplaced(t *testing.T) {
	s := fake.NewCollection("美股可交易", fake.GenerateSymbols("NASDAQ", 120)...)
	hint := &surface.RowHandle{Identifier: "S080", Ref: "NASDAQ:S080"} // not rendered at scrollTop 0

	res, err := newController(s).EnsureSelected(context.Background(), "S080", hint, 79)
	require.NoError(t, err)
	assert.True(t, res.Selected)
}

func TestEnsureSelected_Cancelled(t *testing.T) {
	s := fake.NewCollection("美股可交易", "NASDAQ:AAPL")
	s.IgnoreClicks["AAPL"] = 10
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newController(s).EnsureSelected(ctx, "AAPL", nil, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
