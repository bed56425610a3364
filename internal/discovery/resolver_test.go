package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/internal/surface/fake"
	"github.com/wonny/tvbatch/pkg/logger"
)

func newResolver(s *fake.Surface) *Resolver {
	return NewResolver(s, s, surface.DefaultSelectors(), logger.Nop()).WithSettle(0)
}

func namedConfig(name string, maxItems int) contracts.RunConfig {
	return contracts.RunConfig{
		MaxItems: maxItems,
		Sources:  []contracts.ListingSource{contracts.NamedCollection(name, "US")},
	}
}

func TestResolve_VirtualizedCollectionStopsAtMaxItems(t *testing.T) {
	s := fake.NewCollection("美股可交易", fake.GenerateSymbols("NASDAQ", 120)...)

	res, err := newResolver(s).Resolve(context.Background(), namedConfig("美股可交易", 50))
	require.NoError(t, err)

	require.Len(t, res.Items, 50)
	for i, id := range res.Items {
		assert.Equal(t, fmt.Sprintf("S%03d", i+1), id, "discovery order at %d", i)
	}
	assert.Equal(t, "US", res.Source.GroupLabel)
}

func TestResolve_IdleRoundsStopScan(t *testing.T) {
	s := fake.NewCollection("美股可交易", fake.GenerateSymbols("NYSE", 100)...)
	s.RenderLimit = 15

	res, err := newResolver(s).Resolve(context.Background(), namedConfig("美股可交易", 50))
	require.NoError(t, err)

	assert.Len(t, res.Items, 15)
	// two productive steps, then three idle ones
	assert.Equal(t, 5, s.Scrolls())
}

func TestResolve_EmptyNameAcceptsAnyCollection(t *testing.T) {
	s := fake.NewCollection("whatever", "NASDAQ:AAPL", "NASDAQ:MSFT", "NASDAQ:AAPL")

	res, err := newResolver(s).Resolve(context.Background(), namedConfig("", 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, res.Items)
}

func TestResolve_FallsBackToTable(t *testing.T) {
	s := fake.NewCollection("A股可交易", "SSE:600519")
	s.TableMarkup = `<table><tbody>
<tr data-symbol="NYSE:IBM"><td>ignored</td></tr>
<tr><td>MSFT</td><td>x</td></tr>
<tr><td><a data-symbol-full="NASDAQ:NVDA">NVDA</a></td></tr>
<tr><td></td><td>  TSLA 123</td></tr>
<tr><td>MSFT</td></tr>
</tbody></table>`

	cfg := contracts.RunConfig{
		MaxItems: 10,
		Sources: []contracts.ListingSource{
			contracts.NamedCollection("美股可交易", "US"),
			contracts.TabularFallback(),
		},
	}

	res, err := newResolver(s).Resolve(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, contracts.SourceTabular, res.Source.Kind)
	assert.Equal(t, []string{"IBM", "MSFT", "NVDA", "TSLA"}, res.Items)
}

func TestResolve_TableRespectsMaxItems(t *testing.T) {
	s := fake.NewCollection("x")
	s.HasCollection = false
	s.TableMarkup = `<table><tbody><tr><td>A</td></tr><tr><td>B</td></tr><tr><td>C</td></tr></tbody></table>`

	cfg := contracts.RunConfig{MaxItems: 2, Sources: []contracts.ListingSource{contracts.TabularFallback()}}
	res, err := newResolver(s).Resolve(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, res.Items)
}

func TestResolve_TableReadsOnlyFirstRows(t *testing.T) {
	s := fake.NewCollection("x")
	s.HasCollection = false
	s.TableMarkup = `<table><tbody>
<tr><td>A</td></tr><tr><td>A</td></tr><tr><td>B</td></tr><tr><td>C</td></tr><tr><td>D</td></tr>
</tbody></table>`

	cfg := contracts.RunConfig{MaxItems: 3, Sources: []contracts.ListingSource{contracts.TabularFallback()}}
	res, err := newResolver(s).Resolve(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, res.Items)
}

func TestResolve_NoSourceIsNotAnError(t *testing.T) {
	s := fake.NewCollection("x")
	s.HasCollection = false

	res, err := newResolver(s).Resolve(context.Background(), contracts.RunConfig{})
	require.NoError(t, err)
	assert.False(t, res.Found())
}

func TestResolve_Cancelled(t *testing.T) {
	s := fake.NewCollection("美股可交易", fake.GenerateSymbols("NASDAQ", 20)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newResolver(s).Resolve(ctx, namedConfig("美股可交易", 50))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindRow_ScrollsToOffscreenRow(t *testing.T) {
	s := fake.NewCollection("美股可交易", fake.GenerateSymbols("NASDAQ", 120)...)
	r := newResolver(s)

	h, err := r.FindRow(context.Background(), "S100")
	require.NoError(t, err)
	assert.Equal(t, "S100", h.Identifier)

	_, err = r.FindRow(context.Background(), "NOPE")
	assert.ErrorIs(t, err, surface.ErrAbsent)
}

func TestTableIdentifiers(t *testing.T) {
	sel := surface.DefaultSelectors()
	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{"attribute wins", `<table><tbody><tr data-symbol-id="HKEX:700"><td>Tencent</td></tr></tbody></table>`, []string{"700"}},
		{"cell text", `<table><tbody><tr><td> AMEX:SPY </td></tr></tbody></table>`, []string{"SPY"}},
		{"empty row skipped", `<table><tbody><tr><td></td></tr></tbody></table>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TableIdentifiers(tt.markup, sel, 0))
		})
	}

	rows := `<table><tbody><tr><td>A</td></tr><tr><td>B</td></tr><tr><td>C</td></tr></tbody></table>`
	assert.Equal(t, []string{"A", "B"}, TableIdentifiers(rows, sel, 2))
	assert.Equal(t, []string{"A", "B", "C"}, TableIdentifiers(rows, sel, 5))
}
