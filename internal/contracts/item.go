package contracts

import "strings"

// SourceKind tags a ListingSource variant
type SourceKind string

const (
	SourceNamedCollection SourceKind = "named_collection"
	SourceTabular         SourceKind = "tabular"
)

// ListingSource is one origin for the item list, tried in priority order
// ⭐ SSOT: 종목 목록 출처 정의는 여기서만
type ListingSource struct {
	Kind SourceKind `json:"kind" yaml:"kind"`
	// Name is the collection header to match (named collections only)
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// GroupLabel is copied into every record discovered from this source (e.g. market code)
	GroupLabel string `json:"group_label,omitempty" yaml:"group_label,omitempty"`
}

// NamedCollection builds a named-collection source
func NamedCollection(name, groupLabel string) ListingSource {
	return ListingSource{Kind: SourceNamedCollection, Name: name, GroupLabel: groupLabel}
}

// TabularFallback builds the static table source
func TabularFallback() ListingSource {
	return ListingSource{Kind: SourceTabular}
}

// IsNamed reports whether the source is a named collection
func (s ListingSource) IsNamed() bool {
	return s.Kind == SourceNamedCollection
}

// String returns a short human label
func (s ListingSource) String() string {
	if s.IsNamed() {
		return "collection:" + s.Name
	}
	return string(s.Kind)
}

// NormalizeItemID trims an identifier and strips its exchange prefix
// ("NASDAQ:AAPL" -> "AAPL")
func NormalizeItemID(raw string) string {
	id := strings.TrimSpace(raw)
	if i := strings.LastIndex(id, ":"); i >= 0 {
		id = strings.TrimSpace(id[i+1:])
	}
	return id
}

// MetricRecord holds the raw report text for one item
// Raw text is exported as-is; parsed numbers only exist inside the classifier.
type MetricRecord struct {
	Identifier         string `json:"symbol" csv:"symbol"`
	GroupLabel         string `json:"market" csv:"market"`
	StrategyName       string `json:"strategyName" csv:"strategy_name"`
	PrimaryMetricText  string `json:"totalPnL" csv:"total_pnl"`
	DrawdownText       string `json:"maxEquityDrawdown" csv:"max_equity_drawdown"`
	TradeCountText     string `json:"totalTrades" csv:"total_trades"`
	WinRateText        string `json:"winningTradesPercent" csv:"winning_trades_percent"`
	ProfitFactorText   string `json:"profitFactor" csv:"profit_factor"`
	SecondaryRatioText string `json:"sharpeRatio" csv:"sharpe_ratio"`
}

// IsEmpty reports whether no metric text was extracted at all
func (r MetricRecord) IsEmpty() bool {
	return r.PrimaryMetricText == "" &&
		r.DrawdownText == "" &&
		r.TradeCountText == "" &&
		r.WinRateText == "" &&
		r.ProfitFactorText == "" &&
		r.SecondaryRatioText == ""
}
