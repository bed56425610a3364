// Package workflow applies run configuration to the active item.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/settle"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/pkg/logger"
)

// Names reported in Outcome.Missing
const (
	StepTimeframe      = "timeframe"
	StepStrategy       = "strategy"
	StepEvaluation     = "evaluation"
	StepEvaluationFrom = "evaluation_from"
	StepEvaluationTo   = "evaluation_to"
	StepResults        = "results"
	StepSwitchSymbol   = "switch_symbol"
)

// Delays are the settle pauses after each action
type Delays struct {
	Action time.Duration
	Panel  time.Duration
}

// DefaultDelays returns 200ms per action and 300ms after opening a panel
func DefaultDelays() Delays {
	return Delays{
		Action: 200 * time.Millisecond,
		Panel:  300 * time.Millisecond,
	}
}

// Outcome lists what was applied and what the surface did not offer
type Outcome struct {
	Applied []string
	Missing []string
}

// Complete reports whether nothing was missing
func (o Outcome) Complete() bool {
	return len(o.Missing) == 0
}

// Err wraps ErrConfigurationPartial when any step was missing
func (o Outcome) Err() error {
	if o.Complete() {
		return nil
	}
	return fmt.Errorf("%w: missing %s", contracts.ErrConfigurationPartial, strings.Join(o.Missing, ", "))
}

func (o *Outcome) applied(step string) { o.Applied = append(o.Applied, step) }
func (o *Outcome) missing(step string) { o.Missing = append(o.Missing, step) }

// Configurator drives the configuration controls
// ⭐ SSOT: 타임프레임/전략/기간 설정 적용은 여기서만
type Configurator struct {
	controls       surface.Controls
	confirmPattern string
	delays         Delays
	logger         *logger.Logger
}

// NewConfigurator creates a configurator
func NewConfigurator(controls surface.Controls, sel surface.Selectors, log *logger.Logger) *Configurator {
	return &Configurator{
		controls:       controls,
		confirmPattern: sel.ConfirmPattern,
		delays:         DefaultDelays(),
		logger:         log,
	}
}

// WithDelays overrides the settle pauses
func (c *Configurator) WithDelays(d Delays) *Configurator {
	c.delays = d
	return c
}

// Apply sets timeframe, strategy and evaluation window on the active item.
// Steps are independent; a missing affordance only lands in Outcome.Missing.
// The returned error is non-nil only when ctx is done.
func (c *Configurator) Apply(ctx context.Context, cfg contracts.RunConfig) (Outcome, error) {
	var out Outcome

	if cfg.Timeframe != "" {
		ok, err := c.pick(ctx, surface.ControlTimeframe, cfg.Timeframe, false)
		if err != nil {
			return out, err
		}
		record(&out, StepTimeframe, ok)
	}

	if cfg.StrategyName != "" {
		ok, err := c.pick(ctx, surface.ControlIndicators, cfg.StrategyName, true)
		if err != nil {
			return out, err
		}
		record(&out, StepStrategy, ok)
	}

	if cfg.HasEvaluationRange() {
		if err := c.evaluationRange(ctx, cfg, &out); err != nil {
			return out, err
		}
	}

	if !out.Complete() {
		c.logger.WithField("missing", out.Missing).Warn("Configuration partially applied")
	}
	return out, nil
}

// pick opens a control and chooses the option with the given label
func (c *Configurator) pick(ctx context.Context, ctl surface.Control, label string, foldCase bool) (bool, error) {
	ok, err := c.do(ctx, c.delays.Panel, func() error { return c.controls.Open(ctx, ctl) })
	if err != nil || !ok {
		return false, err
	}
	return c.do(ctx, c.delays.Action, func() error { return c.controls.ChooseOption(ctx, label, foldCase) })
}

func (c *Configurator) evaluationRange(ctx context.Context, cfg contracts.RunConfig, out *Outcome) error {
	ok, err := c.do(ctx, c.delays.Panel, func() error { return c.controls.Open(ctx, surface.ControlEvaluation) })
	if err != nil {
		return err
	}
	if !ok {
		out.missing(StepEvaluation)
		return nil
	}

	bounds := []struct {
		step  string
		field surface.Field
		value string
	}{
		{StepEvaluationFrom, surface.FieldEvaluationFrom, cfg.EvaluationFrom},
		{StepEvaluationTo, surface.FieldEvaluationTo, cfg.EvaluationTo},
	}
	for _, b := range bounds {
		if b.value == "" {
			continue
		}
		ok, err := c.do(ctx, c.delays.Action, func() error { return c.controls.SetField(ctx, b.field, b.value) })
		if err != nil {
			return err
		}
		record(out, b.step, ok)
	}

	// a confirm button is not always shown
	ok, err = c.do(ctx, c.delays.Action, func() error { return c.controls.Confirm(ctx, c.confirmPattern) })
	if err != nil {
		return err
	}
	if !ok {
		c.logger.Debug("No confirm action visible on evaluation panel")
	}
	return nil
}

// OpenResults brings the report view to front. Best effort.
func (c *Configurator) OpenResults(ctx context.Context) (bool, error) {
	return c.do(ctx, c.delays.Panel, func() error { return c.controls.Open(ctx, surface.ControlResults) })
}

// SwitchSymbol makes id active through the header symbol search
func (c *Configurator) SwitchSymbol(ctx context.Context, id string) (bool, error) {
	return c.do(ctx, c.delays.Panel, func() error { return c.controls.SwitchSymbol(ctx, id) })
}

// do runs one action then settles. ok is false when the surface lacked the
// affordance or the action failed; err is set only for context errors.
func (c *Configurator) do(ctx context.Context, pause time.Duration, action func() error) (bool, error) {
	if err := action(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if !errors.Is(err, surface.ErrAbsent) {
			c.logger.WithError(err).Warn("Surface action failed")
		}
		return false, nil
	}
	if err := settle.Wait(ctx, pause); err != nil {
		return false, err
	}
	return true, nil
}

func record(out *Outcome, step string, ok bool) {
	if ok {
		out.applied(step)
	} else {
		out.missing(step)
	}
}
