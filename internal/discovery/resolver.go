// Package discovery resolves the ordered list of item identifiers to process.
package discovery

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/settle"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/pkg/logger"
)

const (
	// ScrollSettle is the pause after each scroll step so the virtualized list can render
	ScrollSettle = 120 * time.Millisecond
	// MinScrollStep is the smallest scroll step in pixels
	MinScrollStep = 150.0
	// RowsPerStep scales the step by the observed row height
	RowsPerStep = 10
	// MaxIdleRounds stops the scan when the set has not grown for this many steps
	MaxIdleRounds = 3
)

// Resolution is the outcome of Resolve
type Resolution struct {
	Source contracts.ListingSource
	Items  []string
}

// Found reports whether any identifier was discovered
func (r Resolution) Found() bool {
	return len(r.Items) > 0
}

// Resolver discovers items from prioritized listing sources
// ⭐ SSOT: 종목 목록 수집 로직은 여기서만
type Resolver struct {
	listing surface.Listing
	rows    surface.Rows
	sel     surface.Selectors
	logger  *logger.Logger
	settle  time.Duration
}

// NewResolver creates a resolver
func NewResolver(listing surface.Listing, rows surface.Rows, sel surface.Selectors, log *logger.Logger) *Resolver {
	return &Resolver{
		listing: listing,
		rows:    rows,
		sel:     sel,
		logger:  log,
		settle:  ScrollSettle,
	}
}

// WithSettle overrides the per-step settle delay
func (r *Resolver) WithSettle(d time.Duration) *Resolver {
	r.settle = d
	return r
}

// Resolve walks cfg.Sources in order and returns the first non-empty set.
// Absent sources are not errors; only context cancellation is returned.
func (r *Resolver) Resolve(ctx context.Context, cfg contracts.RunConfig) (Resolution, error) {
	cfg = cfg.Normalized()
	limit := cfg.EffectiveMaxItems()

	for _, src := range cfg.Sources {
		var (
			items []string
			err   error
		)

		switch src.Kind {
		case contracts.SourceNamedCollection:
			items, err = r.scanCollection(ctx, src, limit)
		case contracts.SourceTabular:
			items, err = r.scanTable(ctx, limit)
		default:
			r.logger.WithField("kind", src.Kind).Warn("Unknown listing source kind, skipping")
			continue
		}
		if err != nil {
			return Resolution{}, err
		}

		r.logger.WithFields(map[string]interface{}{
			"source": src.String(),
			"items":  len(items),
		}).Debug("Listing source scanned")

		if len(items) > 0 {
			return Resolution{Source: src, Items: items}, nil
		}
	}

	return Resolution{}, nil
}

// scanCollection reads a virtualized named collection by stepping its scroll position
func (r *Resolver) scanCollection(ctx context.Context, src contracts.ListingSource, limit int) ([]string, error) {
	title, err := r.listing.CollectionTitle(ctx)
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	if src.Name != "" && strings.TrimSpace(title) != src.Name {
		return nil, nil
	}

	vp, err := r.listing.Viewport(ctx)
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	step := math.Max(vp.RowHeight*RowsPerStep, MinScrollStep)

	set := newOrderedSet(limit)
	idle := 0

	for top := 0.0; top <= vp.ScrollHeight; top += step {
		if err := r.listing.ScrollTo(ctx, top); err != nil {
			if isAbsent(err) {
				break
			}
			return nil, err
		}
		if err := settle.Wait(ctx, r.settle); err != nil {
			return nil, err
		}

		markup, err := r.listing.RenderedRows(ctx)
		if err != nil {
			if isAbsent(err) {
				break
			}
			return nil, err
		}

		before := set.Len()
		for _, id := range RowIdentifiers(markup, r.sel) {
			if set.Add(id) && set.Full() {
				return set.Items(), nil
			}
		}

		// idle guard only arms once something has been seen
		if set.Len() == before && set.Len() > 0 {
			idle++
			if idle >= MaxIdleRounds {
				break
			}
		} else {
			idle = 0
		}
	}

	return set.Items(), nil
}

// scanTable reads the first limit rows of the static results table
func (r *Resolver) scanTable(ctx context.Context, limit int) ([]string, error) {
	markup, err := r.listing.TableRows(ctx)
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, err
	}

	// 최대 limit개 행만 읽음; 중복 행은 그 안에서 제거
	set := newOrderedSet(limit)
	for _, id := range TableIdentifiers(markup, r.sel, limit) {
		if set.Add(id) && set.Full() {
			break
		}
	}
	return set.Items(), nil
}

// FindRow scroll-searches the named collection for one identifier
func (r *Resolver) FindRow(ctx context.Context, id string) (surface.RowHandle, error) {
	if h, err := r.rows.FindRow(ctx, id); err == nil {
		return h, nil
	} else if !isAbsent(err) {
		return surface.RowHandle{}, err
	}

	vp, err := r.listing.Viewport(ctx)
	if err != nil {
		return surface.RowHandle{}, err
	}
	step := math.Max(vp.RowHeight*RowsPerStep, MinScrollStep)

	for top := 0.0; top <= vp.ScrollHeight; top += step {
		if err := r.listing.ScrollTo(ctx, top); err != nil {
			return surface.RowHandle{}, err
		}
		if err := settle.Wait(ctx, r.settle); err != nil {
			return surface.RowHandle{}, err
		}

		h, err := r.rows.FindRow(ctx, id)
		if err == nil {
			return h, nil
		}
		if !isAbsent(err) {
			return surface.RowHandle{}, err
		}
	}

	return surface.RowHandle{}, surface.ErrAbsent
}

// RowIdentifiers extracts identifiers from rendered collection rows, in document order
func RowIdentifiers(markup string, sel surface.Selectors) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var ids []string
	doc.Find(sel.RowWithSymbol).Each(func(_ int, row *goquery.Selection) {
		if id := attrIdentifier(row); id != "" {
			ids = append(ids, id)
		}
	})
	return ids
}

// TableIdentifiers extracts one identifier per table row: symbol attribute
// first, then first cell text, then first token of the row text.
// Only the first maxRows rows are read (maxRows <= 0 reads all).
func TableIdentifiers(markup string, sel surface.Selectors, maxRows int) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	rows := doc.Find(sel.TableRow)
	if maxRows > 0 && rows.Length() > maxRows {
		rows = rows.Slice(0, maxRows)
	}

	var ids []string
	rows.Each(func(_ int, row *goquery.Selection) {
		id := attrIdentifier(row)
		if id == "" {
			id = attrIdentifier(row.Find("[" + strings.Join(surface.SymbolAttrs, "],[") + "]").First())
		}
		if id == "" {
			id = contracts.NormalizeItemID(row.Find("td").First().Text())
		}
		if id == "" {
			if fields := strings.Fields(row.Text()); len(fields) > 0 {
				id = contracts.NormalizeItemID(fields[0])
			}
		}
		if id != "" {
			ids = append(ids, id)
		}
	})
	return ids
}

func attrIdentifier(s *goquery.Selection) string {
	for _, name := range surface.SymbolAttrs {
		if v, ok := s.Attr(name); ok {
			if id := contracts.NormalizeItemID(v); id != "" {
				return id
			}
		}
	}
	return ""
}

func isAbsent(err error) bool {
	return errors.Is(err, surface.ErrAbsent)
}

// orderedSet keeps first-seen order and ignores duplicates
type orderedSet struct {
	seen  map[string]struct{}
	items []string
	limit int
}

func newOrderedSet(limit int) *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), limit: limit}
}

func (s *orderedSet) Add(id string) bool {
	if s.Full() {
		return false
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.items = append(s.items, id)
	return true
}

func (s *orderedSet) Full() bool {
	return s.limit > 0 && len(s.items) >= s.limit
}

func (s *orderedSet) Len() int {
	return len(s.items)
}

func (s *orderedSet) Items() []string {
	return append([]string(nil), s.items...)
}
