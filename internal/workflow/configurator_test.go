package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/internal/surface/fake"
	"github.com/wonny/tvbatch/pkg/logger"
)

func newSurface() *fake.Surface {
	s := fake.NewCollection("美股可交易", "NASDAQ:AAPL")
	s.Affordances = map[surface.Control]bool{
		surface.ControlTimeframe:  true,
		surface.ControlIndicators: true,
		surface.ControlEvaluation: true,
		surface.ControlResults:    true,
	}
	s.Options = []string{"1D", "4h", "MACD Cross v2"}
	s.Fields = map[surface.Field]string{
		surface.FieldEvaluationFrom: "",
		surface.FieldEvaluationTo:   "",
	}
	s.ConfirmLabels = []string{"取消", "应用"}
	return s
}

func newConfigurator(s *fake.Surface) *Configurator {
	return NewConfigurator(s, surface.DefaultSelectors(), logger.Nop()).WithDelays(Delays{})
}

func TestApply_AllSteps(t *testing.T) {
	s := newSurface()
	cfg := contracts.RunConfig{
		Timeframe:      "1D",
		StrategyName:   "macd cross V2",
		EvaluationFrom: "2024-01-01",
		EvaluationTo:   "2024-12-31",
	}

	out, err := newConfigurator(s).Apply(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, out.Complete())
	assert.NoError(t, out.Err())
	assert.Equal(t, []string{StepTimeframe, StepStrategy, StepEvaluationFrom, StepEvaluationTo}, out.Applied)
	assert.Equal(t, []string{"1D", "MACD Cross v2"}, s.Chosen())
	assert.Equal(t, "2024-01-01", s.Fields[surface.FieldEvaluationFrom])
	assert.Equal(t, "2024-12-31", s.Fields[surface.FieldEvaluationTo])
	assert.Contains(t, s.Actions(), "confirm 应用")
}

func TestApply_TimeframeLabelIsExact(t *testing.T) {
	s := newSurface()

	out, err := newConfigurator(s).Apply(context.Background(), contracts.RunConfig{Timeframe: "1d"})
	require.NoError(t, err)
	assert.Equal(t, []string{StepTimeframe}, out.Missing)
}

func TestApply_MissingAffordanceDoesNotBlockOthers(t *testing.T) {
	s := newSurface()
	s.Affordances[surface.ControlIndicators] = false
	delete(s.Fields, surface.FieldEvaluationTo)

	cfg := contracts.RunConfig{
		Timeframe:      "4h",
		StrategyName:   "MACD Cross v2",
		EvaluationFrom: "2024-01-01",
		EvaluationTo:   "2024-12-31",
	}

	out, err := newConfigurator(s).Apply(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{StepTimeframe, StepEvaluationFrom}, out.Applied)
	assert.Equal(t, []string{StepStrategy, StepEvaluationTo}, out.Missing)
	assert.ErrorIs(t, out.Err(), contracts.ErrConfigurationPartial)
	assert.Equal(t, "2024-01-01", s.Fields[surface.FieldEvaluationFrom])
}

func TestApply_EmptyConfigDoesNothing(t *testing.T) {
	s := newSurface()

	out, err := newConfigurator(s).Apply(context.Background(), contracts.RunConfig{})
	require.NoError(t, err)
	assert.Empty(t, out.Applied)
	assert.Empty(t, s.Actions())
}

func TestApply_NoConfirmButtonIsFine(t *testing.T) {
	s := newSurface()
	s.ConfirmLabels = []string{"取消"}

	out, err := newConfigurator(s).Apply(context.Background(), contracts.RunConfig{EvaluationTo: "2024-06-30"})
	require.NoError(t, err)
	assert.True(t, out.Complete())
}

func TestSwitchSymbol(t *testing.T) {
	s := newSurface()
	c := newConfigurator(s)

	ok, err := c.SwitchSymbol(context.Background(), "IBM")
	require.NoError(t, err)
	assert.False(t, ok)

	s.HeaderInput = true
	ok, err = c.SwitchSymbol(context.Background(), "IBM")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "IBM", s.Selected())
}
