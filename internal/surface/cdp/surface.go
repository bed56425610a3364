package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/pkg/logger"
)

// Surface implements surface.Surface against a live page
type Surface struct {
	conn    Caller
	sel     surface.Selectors
	prog    program
	timeout time.Duration
	logger  *logger.Logger
}

var _ surface.Surface = (*Surface)(nil)

// New creates a surface over an open session. timeout bounds every protocol call (0 = none).
func New(conn Caller, sel surface.Selectors, timeout time.Duration, log *logger.Logger) *Surface {
	return &Surface{
		conn:    conn,
		sel:     sel,
		prog:    newProgram(sel),
		timeout: timeout,
		logger:  log,
	}
}

type remoteObject struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type exceptionDetails struct {
	Text      string        `json:"text"`
	Exception *remoteObject `json:"exception"`
}

type evaluateResult struct {
	Result           remoteObject      `json:"result"`
	ExceptionDetails *exceptionDetails `json:"exceptionDetails"`
}

func (s *Surface) call(ctx context.Context, method string, params, result interface{}) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.conn.Call(ctx, method, params, result)
}

// eval runs body with arg and decodes the returned value into out.
// It reports whether the script returned a non-null value.
func (s *Surface) eval(ctx context.Context, body string, arg interface{}, out interface{}) (bool, error) {
	params := map[string]interface{}{
		"expression":    s.prog.build(body, arg),
		"returnByValue": true,
		"awaitPromise":  true,
		"userGesture":   true,
	}

	var res evaluateResult
	if err := s.call(ctx, "Runtime.evaluate", params, &res); err != nil {
		return false, err
	}
	if res.ExceptionDetails != nil {
		return false, fmt.Errorf("page script: %s", res.ExceptionDetails.Text)
	}

	if len(res.Result.Value) == 0 || string(res.Result.Value) == "null" {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(res.Result.Value, out); err != nil {
			return false, fmt.Errorf("decode script value: %w", err)
		}
	}
	return true, nil
}

// act runs an action script answering "ok", "absent" or "stale"
func (s *Surface) act(ctx context.Context, body string, arg interface{}) error {
	var status string
	if _, err := s.eval(ctx, body, arg, &status); err != nil {
		return err
	}
	switch status {
	case "ok":
		return nil
	case "stale":
		return surface.ErrStale
	default:
		return surface.ErrAbsent
	}
}

// --- surface.Listing ---

// CollectionTitle implements surface.Listing
func (s *Surface) CollectionTitle(ctx context.Context) (string, error) {
	var title string
	ok, err := s.eval(ctx, scriptCollectionTitle, nil, &title)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", surface.ErrAbsent
	}
	return title, nil
}

// Viewport implements surface.Listing
func (s *Surface) Viewport(ctx context.Context) (surface.Viewport, error) {
	var vp struct {
		RowHeight    float64 `json:"rowHeight"`
		ScrollHeight float64 `json:"scrollHeight"`
		ScrollTop    float64 `json:"scrollTop"`
	}
	ok, err := s.eval(ctx, scriptViewport, nil, &vp)
	if err != nil {
		return surface.Viewport{}, err
	}
	if !ok {
		return surface.Viewport{}, surface.ErrAbsent
	}
	return surface.Viewport{RowHeight: vp.RowHeight, ScrollHeight: vp.ScrollHeight, ScrollTop: vp.ScrollTop}, nil
}

// ScrollTo implements surface.Listing
func (s *Surface) ScrollTo(ctx context.Context, top float64) error {
	return s.act(ctx, scriptScrollTo, top)
}

// RenderedRows implements surface.Listing
func (s *Surface) RenderedRows(ctx context.Context) (string, error) {
	return s.markup(ctx, scriptRenderedRows)
}

// TableRows implements surface.Listing
func (s *Surface) TableRows(ctx context.Context) (string, error) {
	return s.markup(ctx, scriptTableRows)
}

func (s *Surface) markup(ctx context.Context, body string) (string, error) {
	var html string
	ok, err := s.eval(ctx, body, nil, &html)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", surface.ErrAbsent
	}
	return html, nil
}

// --- surface.Rows ---

// FindRow implements surface.Rows
func (s *Surface) FindRow(ctx context.Context, id string) (surface.RowHandle, error) {
	var ref string
	ok, err := s.eval(ctx, scriptFindRow, id, &ref)
	if err != nil {
		return surface.RowHandle{}, err
	}
	if !ok {
		return surface.RowHandle{}, surface.ErrAbsent
	}
	return surface.RowHandle{Identifier: id, Ref: ref}, nil
}

type elementSnapshot struct {
	Attrs     map[string]string `json:"attrs"`
	Class     string            `json:"class"`
	Ancestors []elementSnapshot `json:"ancestors"`
}

func (e elementSnapshot) state() surface.ElementState {
	st := surface.ElementState{Attrs: e.Attrs, Class: e.Class}
	for _, a := range e.Ancestors {
		st.Ancestors = append(st.Ancestors, surface.ElementState{Attrs: a.Attrs, Class: a.Class})
	}
	return st
}

// RowState implements surface.Rows
func (s *Surface) RowState(ctx context.Context, h surface.RowHandle) (surface.ElementState, error) {
	var snap elementSnapshot
	ok, err := s.eval(ctx, scriptRowState, h.Identifier, &snap)
	if err != nil {
		return surface.ElementState{}, err
	}
	if !ok {
		return surface.ElementState{}, surface.ErrStale
	}
	return snap.state(), nil
}

// ScrollIntoView implements surface.Rows
func (s *Surface) ScrollIntoView(ctx context.Context, h surface.RowHandle) error {
	return s.act(ctx, scriptScrollIntoView, h.Identifier)
}

// Click implements surface.Rows with native mouse input at the row's center
func (s *Surface) Click(ctx context.Context, h surface.RowHandle) error {
	var pt struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	ok, err := s.eval(ctx, scriptRowPoint, h.Identifier, &pt)
	if err != nil {
		return err
	}
	if !ok {
		return surface.ErrStale
	}

	events := []map[string]interface{}{
		{"type": "mouseMoved", "x": pt.X, "y": pt.Y},
		{"type": "mousePressed", "x": pt.X, "y": pt.Y, "button": "left", "buttons": 1, "clickCount": 1},
		{"type": "mouseReleased", "x": pt.X, "y": pt.Y, "button": "left", "buttons": 0, "clickCount": 1},
	}
	for _, ev := range events {
		if err := s.call(ctx, "Input.dispatchMouseEvent", ev, nil); err != nil {
			return fmt.Errorf("mouse %s: %w", ev["type"], err)
		}
	}
	return nil
}

// FocusListing implements surface.Rows
func (s *Surface) FocusListing(ctx context.Context) error {
	return s.act(ctx, scriptFocusListing, nil)
}

var keyCodes = map[surface.Key]int{
	surface.KeyEnter:     13,
	surface.KeyHome:      36,
	surface.KeyArrowDown: 40,
}

// PressKey implements surface.Rows with native key input on the focused element
func (s *Surface) PressKey(ctx context.Context, key surface.Key) error {
	down := map[string]interface{}{
		"type":                  "keyDown",
		"key":                   string(key),
		"code":                  string(key),
		"windowsVirtualKeyCode": keyCodes[key],
	}
	if key == surface.KeyEnter {
		down["text"] = "\r"
	}
	up := map[string]interface{}{
		"type":                  "keyUp",
		"key":                   string(key),
		"code":                  string(key),
		"windowsVirtualKeyCode": keyCodes[key],
	}

	for _, ev := range []map[string]interface{}{down, up} {
		if err := s.call(ctx, "Input.dispatchKeyEvent", ev, nil); err != nil {
			return fmt.Errorf("key %s: %w", key, err)
		}
	}
	return nil
}

// RemoveRow implements surface.Rows
func (s *Surface) RemoveRow(ctx context.Context, h surface.RowHandle) error {
	return s.act(ctx, scriptRemoveRow, h.Identifier)
}

// --- surface.Controls ---

// Open implements surface.Controls
func (s *Surface) Open(ctx context.Context, c surface.Control) error {
	switch c {
	case surface.ControlTimeframe:
		return s.act(ctx, scriptClickSelector, s.sel.TimeframeButton)
	case surface.ControlIndicators:
		return s.act(ctx, scriptClickSelector, s.sel.IndicatorsButton)
	case surface.ControlEvaluation:
		return s.act(ctx, scriptOpenTab, map[string]interface{}{
			"tabs":    s.sel.TesterTabLabels,
			"require": []string{s.sel.EvaluationFrom, s.sel.EvaluationTo},
		})
	case surface.ControlResults:
		return s.act(ctx, scriptOpenTab, map[string]interface{}{
			"tabs": s.sel.ReportTabLabels,
			"then": s.sel.MetricsTabLabels,
		})
	default:
		return fmt.Errorf("unknown control %q", c)
	}
}

// ChooseOption implements surface.Controls
func (s *Surface) ChooseOption(ctx context.Context, label string, foldCase bool) error {
	return s.act(ctx, scriptChooseOption, map[string]interface{}{"label": label, "fold": foldCase})
}

// SetField implements surface.Controls
func (s *Surface) SetField(ctx context.Context, f surface.Field, value string) error {
	var selector string
	switch f {
	case surface.FieldEvaluationFrom:
		selector = s.sel.EvaluationFrom
	case surface.FieldEvaluationTo:
		selector = s.sel.EvaluationTo
	default:
		return fmt.Errorf("unknown field %q", f)
	}
	return s.act(ctx, scriptSetField, map[string]interface{}{"selector": selector, "value": value})
}

// Confirm implements surface.Controls
func (s *Surface) Confirm(ctx context.Context, labelPattern string) error {
	source, flags := jsPattern(labelPattern)
	return s.act(ctx, scriptConfirm, map[string]interface{}{"source": source, "flags": flags})
}

// SwitchSymbol implements surface.Controls
func (s *Surface) SwitchSymbol(ctx context.Context, id string) error {
	err := s.act(ctx, scriptSetField, map[string]interface{}{"selector": s.sel.HeaderSymbolInput, "value": id})
	if err != nil {
		return err
	}
	return s.PressKey(ctx, surface.KeyEnter)
}

// --- surface.Report ---

// OutdatedNotice implements surface.Report
func (s *Surface) OutdatedNotice(ctx context.Context) (bool, error) {
	var shown bool
	if _, err := s.eval(ctx, scriptOutdatedNotice, nil, &shown); err != nil {
		return false, err
	}
	return shown, nil
}

// ConfirmOutdated implements surface.Report
func (s *Surface) ConfirmOutdated(ctx context.Context) error {
	return s.act(ctx, scriptConfirmOutdated, nil)
}

// ReportMarkup implements surface.Report
func (s *Surface) ReportMarkup(ctx context.Context) (string, error) {
	return s.markup(ctx, scriptReportMarkup)
}
