// Package fake is an in-memory surface.Surface that behaves like a virtualized
// watchlist next to a strategy report. Failure modes are injected per test.
//
// Markup uses the class names of surface.DefaultSelectors.
package fake

import (
	"context"
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/surface"
)

// Metrics is the report text shown while an item is active
type Metrics struct {
	PnL          string
	PnLValue     string
	Drawdown     string
	Trades       string
	WinRate      string
	ProfitFactor string
	Sharpe       string
}

// Surface is the fake. Exported fields are set up before use.
type Surface struct {
	mu sync.Mutex

	// Named collection
	HasCollection  bool
	Title          string
	Symbols        []string // full symbols, e.g. "NASDAQ:AAPL"
	RowHeight      float64
	ViewportHeight float64

	// RenderLimit stops rendering at this row index (0 = no limit), like a stuck virtualizer
	RenderLimit int

	// Failure injection
	IgnoreClicks   map[string]int  // clicks silently dropped per identifier
	Unresolvable   map[string]bool // rendered in the listing but never resolvable as a row
	NoRemoveButton map[string]bool
	EnterSelects   bool // Enter on the focused listing selects the keyboard cursor row

	// Tabular fallback markup ("" = no table)
	TableMarkup string

	// Configuration affordances
	Affordances   map[surface.Control]bool
	Options       []string
	Fields        map[surface.Field]string
	ConfirmLabels []string
	HeaderInput   bool

	// Report
	Metrics map[string]Metrics

	// OutdatedAfterPolls shows the refresh notice after that many polls (-1 = never)
	OutdatedAfterPolls int

	scrollTop float64
	selected  string
	cursor    string
	focused   bool
	polls     int
	scrolls   int
	confirmed int
	removed   []string
	chosen    []string
	confirms  []string
	clicks    map[string]int
	actions   []string
}

// NewCollection builds a fake with a named collection of the given symbols
func NewCollection(title string, symbols ...string) *Surface {
	return &Surface{
		HasCollection:      true,
		Title:              title,
		Symbols:            symbols,
		RowHeight:          30,
		ViewportHeight:     360,
		IgnoreClicks:       map[string]int{},
		Unresolvable:       map[string]bool{},
		NoRemoveButton:     map[string]bool{},
		Affordances:        map[surface.Control]bool{},
		Fields:             map[surface.Field]string{},
		Metrics:            map[string]Metrics{},
		OutdatedAfterPolls: -1,
		clicks:             map[string]int{},
	}
}

// GenerateSymbols returns n symbols EX:S001..EX:Snnn
func GenerateSymbols(exchange string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s:S%03d", exchange, i+1)
	}
	return out
}

func (s *Surface) record(format string, args ...interface{}) {
	s.actions = append(s.actions, fmt.Sprintf(format, args...))
}

func (s *Surface) indexOf(id string) int {
	for i, full := range s.Symbols {
		if contracts.NormalizeItemID(full) == id {
			return i
		}
	}
	return -1
}

// window returns the [start, end) row range currently rendered
func (s *Surface) window() (int, int) {
	rh := s.RowHeight
	if rh <= 0 {
		rh = 30
	}
	start := int(s.scrollTop / rh)
	visible := int(math.Ceil(s.ViewportHeight/rh)) + 2 // overscan
	end := start + visible
	limit := len(s.Symbols)
	if s.RenderLimit > 0 && s.RenderLimit < limit {
		limit = s.RenderLimit
	}
	if end > limit {
		end = limit
	}
	if start > end {
		start = end
	}
	return start, end
}

func (s *Surface) rendered(id string) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	start, end := s.window()
	return idx >= start && idx < end
}

// --- surface.Listing ---

// CollectionTitle implements surface.Listing
func (s *Surface) CollectionTitle(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.HasCollection {
		return "", surface.ErrAbsent
	}
	return s.Title, nil
}

// Viewport implements surface.Listing
func (s *Surface) Viewport(ctx context.Context) (surface.Viewport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.HasCollection {
		return surface.Viewport{}, surface.ErrAbsent
	}
	return surface.Viewport{
		RowHeight:    s.RowHeight,
		ScrollHeight: float64(len(s.Symbols)) * s.RowHeight,
		ScrollTop:    s.scrollTop,
	}, nil
}

// ScrollTo implements surface.Listing
func (s *Surface) ScrollTo(ctx context.Context, top float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.HasCollection {
		return surface.ErrAbsent
	}
	max := float64(len(s.Symbols))*s.RowHeight - s.ViewportHeight
	if max < 0 {
		max = 0
	}
	s.scrollTop = math.Min(math.Max(top, 0), max)
	s.scrolls++
	return nil
}

// RenderedRows implements surface.Listing
func (s *Surface) RenderedRows(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.HasCollection {
		return "", surface.ErrAbsent
	}

	var b strings.Builder
	b.WriteString(`<div class="listContainer-MgF6KBas">`)
	start, end := s.window()
	for i := start; i < end; i++ {
		full := s.Symbols[i]
		short := contracts.NormalizeItemID(full)
		class := "symbol-RsFlttSS"
		if short == s.selected {
			class += " active"
		}
		fmt.Fprintf(&b, `<div class="wrap-IEe5qpW4"><div class="%s" data-symbol-full="%s" data-symbol-short="%s"><span class="symbolNameText-RsFlttSS">%s</span></div></div>`,
			class, html.EscapeString(full), html.EscapeString(short), html.EscapeString(short))
	}
	b.WriteString(`</div>`)
	return b.String(), nil
}

// TableRows implements surface.Listing
func (s *Surface) TableRows(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TableMarkup == "" {
		return "", surface.ErrAbsent
	}
	return s.TableMarkup, nil
}

// --- surface.Rows ---

// FindRow implements surface.Rows
func (s *Surface) FindRow(ctx context.Context, id string) (surface.RowHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.HasCollection || s.Unresolvable[id] || !s.rendered(id) {
		return surface.RowHandle{}, surface.ErrAbsent
	}
	return surface.RowHandle{Identifier: id, Ref: s.Symbols[s.indexOf(id)]}, nil
}

// RowState implements surface.Rows
func (s *Surface) RowState(ctx context.Context, h surface.RowHandle) (surface.ElementState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rendered(h.Identifier) {
		return surface.ElementState{}, surface.ErrStale
	}

	state := surface.ElementState{
		Attrs: map[string]string{
			"data-symbol-short": h.Identifier,
		},
		Class:     "symbol-RsFlttSS",
		Ancestors: []surface.ElementState{{Class: "wrap-IEe5qpW4"}},
	}
	if s.selected == h.Identifier {
		state.Class += " active"
	}
	return state, nil
}

// ScrollIntoView implements surface.Rows
func (s *Surface) ScrollIntoView(ctx context.Context, h surface.RowHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(h.Identifier)
	if idx < 0 || !s.rendered(h.Identifier) {
		return surface.ErrStale
	}
	top := float64(idx)*s.RowHeight - s.ViewportHeight/2 + s.RowHeight/2
	max := float64(len(s.Symbols))*s.RowHeight - s.ViewportHeight
	s.scrollTop = math.Min(math.Max(top, 0), math.Max(max, 0))
	return nil
}

// Click implements surface.Rows
func (s *Surface) Click(ctx context.Context, h surface.RowHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rendered(h.Identifier) {
		return surface.ErrStale
	}
	s.clicks[h.Identifier]++
	s.cursor = h.Identifier
	s.focused = false
	if s.IgnoreClicks[h.Identifier] > 0 {
		s.IgnoreClicks[h.Identifier]--
		s.record("click-ignored %s", h.Identifier)
		return nil
	}
	s.selected = h.Identifier
	s.record("click %s", h.Identifier)
	return nil
}

// FocusListing implements surface.Rows
func (s *Surface) FocusListing(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.HasCollection {
		return surface.ErrAbsent
	}
	s.focused = true
	return nil
}

// PressKey implements surface.Rows
func (s *Surface) PressKey(ctx context.Context, key surface.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("key %s", key)
	if key == surface.KeyEnter && s.focused && s.EnterSelects && s.cursor != "" {
		s.selected = s.cursor
	}
	return nil
}

// RemoveRow implements surface.Rows
func (s *Surface) RemoveRow(ctx context.Context, h surface.RowHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NoRemoveButton[h.Identifier] {
		return surface.ErrAbsent
	}
	idx := s.indexOf(h.Identifier)
	if idx < 0 || !s.rendered(h.Identifier) {
		return surface.ErrStale
	}
	s.Symbols = append(s.Symbols[:idx:idx], s.Symbols[idx+1:]...)
	s.removed = append(s.removed, h.Identifier)
	s.record("remove %s", h.Identifier)
	return nil
}

// --- surface.Controls ---

// Open implements surface.Controls
func (s *Surface) Open(ctx context.Context, c surface.Control) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Affordances[c] {
		return surface.ErrAbsent
	}
	s.record("open %s", c)
	return nil
}

// ChooseOption implements surface.Controls
func (s *Surface) ChooseOption(ctx context.Context, label string, foldCase bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, opt := range s.Options {
		if opt == label || (foldCase && strings.EqualFold(opt, label)) {
			s.chosen = append(s.chosen, opt)
			s.record("choose %s", opt)
			return nil
		}
	}
	return surface.ErrAbsent
}

// SetField implements surface.Controls
func (s *Surface) SetField(ctx context.Context, f surface.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Fields[f]; !ok {
		return surface.ErrAbsent
	}
	s.Fields[f] = value
	s.record("set %s=%s", f, value)
	return nil
}

// Confirm implements surface.Controls
func (s *Surface) Confirm(ctx context.Context, labelPattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	re, err := regexp.Compile(labelPattern)
	if err != nil {
		return err
	}
	for _, l := range s.ConfirmLabels {
		if re.MatchString(l) {
			s.confirms = append(s.confirms, l)
			s.record("confirm %s", l)
			return nil
		}
	}
	return surface.ErrAbsent
}

// SwitchSymbol implements surface.Controls
func (s *Surface) SwitchSymbol(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.HeaderInput {
		return surface.ErrAbsent
	}
	s.selected = id
	s.record("switch %s", id)
	return nil
}

// --- surface.Report ---

// OutdatedNotice implements surface.Report
func (s *Surface) OutdatedNotice(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	return s.OutdatedAfterPolls >= 0 && s.polls > s.OutdatedAfterPolls, nil
}

// ConfirmOutdated implements surface.Report
func (s *Surface) ConfirmOutdated(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed++
	s.polls = 0
	s.record("confirm-refresh")
	return nil
}

// ReportMarkup implements surface.Report
func (s *Surface) ReportMarkup(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.Metrics[s.selected]
	if !ok {
		return `<div data-name="backtesting"></div>`, nil
	}

	cell := func(title, value, change string) string {
		return fmt.Sprintf(`<div class="containerCell-zres18Ue"><div class="title-nEWm7_ye">%s</div><div class="value-DiHajR6I">%s</div><div class="change-DiHajR6I">%s</div></div>`,
			html.EscapeString(title), html.EscapeString(value), html.EscapeString(change))
	}

	var b strings.Builder
	b.WriteString(`<div data-name="backtesting"><button data-strategy-title="Fake Strategy"></button>`)
	b.WriteString(cell("总盈亏", m.PnLValue, m.PnL))
	b.WriteString(cell("最大股权回撤", "", m.Drawdown))
	b.WriteString(cell("总交易", m.Trades, ""))
	b.WriteString(cell("盈利交易", m.WinRate, ""))
	b.WriteString(cell("盈利因子", m.ProfitFactor, ""))
	fmt.Fprintf(&b, `<table data-qa-id="ratios-table"><tbody><tr><td class="title-fArEbVva">夏普比率</td><td class="value-SLMKagwH">%s</td></tr></tbody></table>`,
		html.EscapeString(m.Sharpe))
	b.WriteString(`</div>`)
	return b.String(), nil
}

// --- inspection helpers for tests ---

// Selected returns the currently selected identifier
func (s *Surface) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select forces the active item
func (s *Surface) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// Scrolls returns how many ScrollTo calls were made
func (s *Surface) Scrolls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrolls
}

// Clicks returns the click count for an identifier
func (s *Surface) Clicks(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clicks[id]
}

// Removed returns the identifiers deleted from the collection
func (s *Surface) Removed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.removed...)
}

// Chosen returns the options picked through ChooseOption
func (s *Surface) Chosen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.chosen...)
}

// RefreshConfirmations returns how often the refresh notice was confirmed
func (s *Surface) RefreshConfirmations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmed
}

// Actions returns the interaction log
func (s *Surface) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}

var _ surface.Surface = (*Surface)(nil)
