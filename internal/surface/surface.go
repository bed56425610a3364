// Package surface defines the capabilities the batch core needs from the
// browser-rendered application. Adapters live in sub-packages.
package surface

import (
	"context"
	"errors"
)

// ErrAbsent means the surface does not currently expose the capability or element.
var ErrAbsent = errors.New("surface: element absent")

// ErrStale means a RowHandle no longer points at a rendered element and must be re-resolved.
var ErrStale = errors.New("surface: stale row handle")

// RowHandle is an ephemeral reference to an item's rendered row.
// Adapters re-locate the element on every call; never keep one across a run step.
type RowHandle struct {
	Identifier string
	Ref        string
}

// ElementState is the observable state of a row, used by the selection predicate
type ElementState struct {
	Attrs     map[string]string
	Class     string
	Ancestors []ElementState
}

// Attr returns an attribute value or ""
func (s ElementState) Attr(name string) string {
	if s.Attrs == nil {
		return ""
	}
	return s.Attrs[name]
}

// Viewport describes the scrollable listing container
type Viewport struct {
	RowHeight    float64
	ScrollHeight float64
	ScrollTop    float64
}

// Control names a configuration affordance
type Control string

const (
	ControlTimeframe  Control = "timeframe"
	ControlIndicators Control = "indicators"
	ControlEvaluation Control = "evaluation"
	ControlResults    Control = "results"
)

// Field names an input on the evaluation panel
type Field string

const (
	FieldEvaluationFrom Field = "evaluation_from"
	FieldEvaluationTo   Field = "evaluation_to"
)

// Key is a simulated key press
type Key string

const (
	KeyEnter     Key = "Enter"
	KeyHome      Key = "Home"
	KeyArrowDown Key = "ArrowDown"
)

// Listing exposes item discovery
type Listing interface {
	// CollectionTitle returns the header of the visible named collection
	CollectionTitle(ctx context.Context) (string, error)
	// Viewport returns geometry of the collection's scroll container
	Viewport(ctx context.Context) (Viewport, error)
	// ScrollTo moves the collection's virtual scroll position
	ScrollTo(ctx context.Context, top float64) error
	// RenderedRows returns markup of the rows currently rendered in the collection
	RenderedRows(ctx context.Context) (string, error)
	// TableRows returns markup of the static results table body
	TableRows(ctx context.Context) (string, error)
}

// Rows exposes row lookup and simulated interaction
type Rows interface {
	FindRow(ctx context.Context, id string) (RowHandle, error)
	RowState(ctx context.Context, h RowHandle) (ElementState, error)
	ScrollIntoView(ctx context.Context, h RowHandle) error
	Click(ctx context.Context, h RowHandle) error
	FocusListing(ctx context.Context) error
	PressKey(ctx context.Context, key Key) error
	// RemoveRow clicks the row's delete affordance; ErrAbsent when there is none
	RemoveRow(ctx context.Context, h RowHandle) error
}

// Controls exposes the workflow configuration affordances
type Controls interface {
	Open(ctx context.Context, c Control) error
	ChooseOption(ctx context.Context, label string, foldCase bool) error
	// SetField clears the input, sets value and dispatches an input notification
	SetField(ctx context.Context, f Field, value string) error
	// Confirm clicks the first visible button whose label matches labelPattern (regexp)
	Confirm(ctx context.Context, labelPattern string) error
	// SwitchSymbol types id into the header symbol search
	SwitchSymbol(ctx context.Context, id string) error
}

// Report exposes the recomputation signal and the result markup
type Report interface {
	OutdatedNotice(ctx context.Context) (bool, error)
	ConfirmOutdated(ctx context.Context) error
	ReportMarkup(ctx context.Context) (string, error)
}

// Surface is everything the batch core drives
type Surface interface {
	Listing
	Rows
	Controls
	Report
}
