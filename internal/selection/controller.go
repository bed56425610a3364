// Package selection makes an item the active one in the listing and verifies it.
//
// Synthetic clicks can be dropped silently by the surface, so every step is
// checked against the row's observable state before moving on.
package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/tvbatch/internal/settle"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/pkg/logger"
)

// State is a selection FSM state
type State string

const (
	StateUnresolved State = "unresolved"
	StateAttempting State = "attempting"
	StateVerified   State = "verified"
	StateFailed     State = "failed"
)

// Step names the strategy that caused a transition
type Step string

const (
	StepAlready  Step = "already_selected"
	StepNoRow    Step = "no_row"
	StepClick    Step = "click"
	StepPosition Step = "scroll_to_position"
	StepKey      Step = "key_confirm"
)

// MaxClicks is the number of direct click attempts
const MaxClicks = 3

// Transition is one FSM edge
type Transition struct {
	From    State `json:"from"`
	To      State `json:"to"`
	Attempt int   `json:"attempt"`
	Step    Step  `json:"step"`
}

// String renders "attempting(2) -> verified [click]"
func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s [%s]", label(t.From, t.Attempt), label(t.To, t.Attempt), t.Step)
}

func label(s State, attempt int) string {
	if s == StateAttempting {
		return fmt.Sprintf("%s(%d)", s, attempt)
	}
	return string(s)
}

// Result is the outcome of EnsureSelected
type Result struct {
	Selected bool
	Resolved bool
	Handle   surface.RowHandle
	Trace    []Transition
}

// Path returns the trace as strings for diagnostics
func (r Result) Path() []string {
	out := make([]string, len(r.Trace))
	for i, t := range r.Trace {
		out[i] = t.String()
	}
	return out
}

// Final returns the last state reached
func (r Result) Final() State {
	if len(r.Trace) == 0 {
		return StateUnresolved
	}
	return r.Trace[len(r.Trace)-1].To
}

// Locator finds a row, scrolling the listing if needed
type Locator interface {
	FindRow(ctx context.Context, id string) (surface.RowHandle, error)
}

// Delays are the settle pauses between steps
type Delays struct {
	Unresolved time.Duration
	AfterClick time.Duration
	Refocus    time.Duration
	AfterKey   time.Duration
}

// DefaultDelays returns the production settle pauses
func DefaultDelays() Delays {
	return Delays{
		Unresolved: 50 * time.Millisecond,
		AfterClick: 120 * time.Millisecond,
		Refocus:    60 * time.Millisecond,
		AfterKey:   80 * time.Millisecond,
	}
}

// Controller selects items with layered fallbacks
// ⭐ SSOT: 종목 선택/검증 로직은 여기서만
type Controller struct {
	rows    surface.Rows
	listing surface.Listing
	locator Locator
	delays  Delays
	logger  *logger.Logger
}

// NewController creates a selection controller. locator may be nil, in which
// case only the currently rendered rows are searched.
func NewController(rows surface.Rows, listing surface.Listing, locator Locator, log *logger.Logger) *Controller {
	return &Controller{
		rows:    rows,
		listing: listing,
		locator: locator,
		delays:  DefaultDelays(),
		logger:  log,
	}
}

// WithDelays overrides the settle pauses
func (c *Controller) WithDelays(d Delays) *Controller {
	c.delays = d
	return c
}

// machine carries FSM state for one EnsureSelected call
type machine struct {
	state   State
	attempt int
	trace   []Transition
	handle  surface.RowHandle
}

func (m *machine) to(next State, step Step) {
	m.trace = append(m.trace, Transition{From: m.state, To: next, Attempt: m.attempt, Step: step})
	m.state = next
}

func (m *machine) result() Result {
	return Result{
		Selected: m.state == StateVerified,
		Resolved: m.handle.Identifier != "",
		Handle:   m.handle,
		Trace:    m.trace,
	}
}

// EnsureSelected makes id the active item and reports whether that was verified.
// hint is an optional handle from a previous step; ordinal is the item's position
// in the listing, or negative when unknown. Only context errors are returned.
func (c *Controller) EnsureSelected(ctx context.Context, id string, hint *surface.RowHandle, ordinal int) (Result, error) {
	m := &machine{state: StateUnresolved}
	log := c.logger.WithField("symbol", id)

	// 1. resolve
	h, err := c.resolve(ctx, id, hint)
	if err != nil {
		return m.result(), err
	}
	if h.Identifier == "" {
		if err := c.refocus(ctx); err != nil {
			return m.result(), err
		}
		if err := settle.Wait(ctx, c.delays.Unresolved); err != nil {
			return m.result(), err
		}
		m.to(StateFailed, StepNoRow)
		log.Warn("Row not resolvable")
		return m.result(), nil
	}
	m.handle = h

	if ok, err := c.check(ctx, m); err != nil {
		return m.result(), err
	} else if ok {
		m.to(StateVerified, StepAlready)
		return m.result(), nil
	}

	// 2. direct clicks
	if err := c.rows.ScrollIntoView(ctx, m.handle); err != nil && !isSurfaceMiss(err) {
		return m.result(), err
	}
	for n := 1; n <= MaxClicks; n++ {
		m.attempt = n
		m.to(StateAttempting, StepClick)

		if ok, err := c.clickAndCheck(ctx, m); err != nil {
			return m.result(), err
		} else if ok {
			m.to(StateVerified, StepClick)
			return m.result(), nil
		}
	}

	// 3. scroll to the known position and click once more
	if ordinal >= 0 {
		m.attempt++
		m.to(StateAttempting, StepPosition)

		if err := c.scrollToOrdinal(ctx, ordinal); err != nil {
			return m.result(), err
		}
		if h, err := c.rows.FindRow(ctx, id); err == nil {
			m.handle = h
		} else if !isSurfaceMiss(err) {
			return m.result(), err
		}

		if ok, err := c.clickAndCheck(ctx, m); err != nil {
			return m.result(), err
		} else if ok {
			m.to(StateVerified, StepPosition)
			return m.result(), nil
		}
	}

	// 4. keyboard confirm on the focused listing
	m.attempt++
	m.to(StateAttempting, StepKey)
	if err := c.refocus(ctx); err != nil {
		return m.result(), err
	}
	if err := c.rows.PressKey(ctx, surface.KeyEnter); err != nil && !isSurfaceMiss(err) {
		return m.result(), err
	}
	if err := settle.Wait(ctx, c.delays.AfterKey); err != nil {
		return m.result(), err
	}

	ok, err := c.check(ctx, m)
	if err != nil {
		return m.result(), err
	}
	if ok {
		m.to(StateVerified, StepKey)
	} else {
		m.to(StateFailed, StepKey)
		log.WithField("attempts", m.attempt).Warn("Selection could not be verified")
	}
	return m.result(), nil
}

// resolve returns a handle or a zero handle when the row cannot be found
func (c *Controller) resolve(ctx context.Context, id string, hint *surface.RowHandle) (surface.RowHandle, error) {
	if hint != nil && hint.Identifier == id {
		if _, err := c.rows.RowState(ctx, *hint); err == nil {
			return *hint, nil
		} else if !isSurfaceMiss(err) {
			return surface.RowHandle{}, err
		}
	}

	find := c.rows.FindRow
	if c.locator != nil {
		find = c.locator.FindRow
	}

	h, err := find(ctx, id)
	if err != nil {
		if isSurfaceMiss(err) {
			return surface.RowHandle{}, nil
		}
		return surface.RowHandle{}, err
	}
	return h, nil
}

func (c *Controller) clickAndCheck(ctx context.Context, m *machine) (bool, error) {
	err := c.rows.Click(ctx, m.handle)
	if errors.Is(err, surface.ErrStale) {
		if err := c.reresolve(ctx, m); err != nil {
			return false, err
		}
		err = c.rows.Click(ctx, m.handle)
	}
	if err != nil && !isSurfaceMiss(err) {
		return false, err
	}

	if err := settle.Wait(ctx, c.delays.AfterClick); err != nil {
		return false, err
	}
	if err := c.refocus(ctx); err != nil {
		return false, err
	}
	if err := settle.Wait(ctx, c.delays.Refocus); err != nil {
		return false, err
	}
	return c.check(ctx, m)
}

// check evaluates the selection predicate, re-resolving a stale handle once
func (c *Controller) check(ctx context.Context, m *machine) (bool, error) {
	st, err := c.rows.RowState(ctx, m.handle)
	if errors.Is(err, surface.ErrStale) {
		if err := c.reresolve(ctx, m); err != nil {
			return false, err
		}
		st, err = c.rows.RowState(ctx, m.handle)
	}
	if err != nil {
		if isSurfaceMiss(err) {
			return false, nil
		}
		return false, err
	}
	return IsSelected(st), nil
}

func (c *Controller) reresolve(ctx context.Context, m *machine) error {
	h, err := c.resolve(ctx, m.handle.Identifier, nil)
	if err != nil {
		return err
	}
	if h.Identifier != "" {
		m.handle = h
	}
	return nil
}

func (c *Controller) scrollToOrdinal(ctx context.Context, ordinal int) error {
	vp, err := c.listing.Viewport(ctx)
	if err != nil {
		if isSurfaceMiss(err) {
			return nil
		}
		return err
	}
	if err := c.listing.ScrollTo(ctx, float64(ordinal)*vp.RowHeight); err != nil && !isSurfaceMiss(err) {
		return err
	}
	return settle.Wait(ctx, c.delays.AfterClick)
}

func (c *Controller) refocus(ctx context.Context) error {
	if err := c.rows.FocusListing(ctx); err != nil && !isSurfaceMiss(err) {
		return err
	}
	return nil
}

// isSurfaceMiss is true for errors that mean "try the next strategy"
func isSurfaceMiss(err error) bool {
	return errors.Is(err, surface.ErrAbsent) || errors.Is(err, surface.ErrStale)
}
