package surface

// Selectors holds the site-specific lookup details
// ⭐ SSOT: 사이트별 CSS 셀렉터/라벨은 여기서만 관리
//
// Class names carry build hashes and change with site releases; override them
// through runconfig rather than editing the adapters.
type Selectors struct {
	WatchlistWidget string   `yaml:"watchlist_widget" json:"watchlist_widget"`
	CollectionTitle string   `yaml:"collection_title" json:"collection_title"`
	ListContainers  []string `yaml:"list_containers" json:"list_containers"`
	Row             string   `yaml:"row" json:"row"`
	RowWithSymbol   string   `yaml:"row_with_symbol" json:"row_with_symbol"`
	RowWrap         string   `yaml:"row_wrap" json:"row_wrap"`
	RowSymbolText   string   `yaml:"row_symbol_text" json:"row_symbol_text"`
	RemoveButton    string   `yaml:"remove_button" json:"remove_button"`
	Table           string   `yaml:"table" json:"table"`
	TableRow        string   `yaml:"table_row" json:"table_row"`

	HeaderSymbolInput string   `yaml:"header_symbol_input" json:"header_symbol_input"`
	TimeframeButton   string   `yaml:"timeframe_button" json:"timeframe_button"`
	IndicatorsButton  string   `yaml:"indicators_button" json:"indicators_button"`
	OptionCandidates  string   `yaml:"option_candidates" json:"option_candidates"`
	EvaluationFrom    string   `yaml:"evaluation_from" json:"evaluation_from"`
	EvaluationTo      string   `yaml:"evaluation_to" json:"evaluation_to"`
	TesterTabLabels   []string `yaml:"tester_tab_labels" json:"tester_tab_labels"`
	ReportTabLabels   []string `yaml:"report_tab_labels" json:"report_tab_labels"`
	MetricsTabLabels  []string `yaml:"metrics_tab_labels" json:"metrics_tab_labels"`
	ConfirmPattern    string   `yaml:"confirm_pattern" json:"confirm_pattern"`

	OutdatedSnackbar   string   `yaml:"outdated_snackbar" json:"outdated_snackbar"`
	SnackbarButton     string   `yaml:"snackbar_button" json:"snackbar_button"`
	UpdateReportLabels []string `yaml:"update_report_labels" json:"update_report_labels"`

	ReportRoot    string `yaml:"report_root" json:"report_root"`
	MetricTitle   string `yaml:"metric_title" json:"metric_title"`
	MetricCell    string `yaml:"metric_cell" json:"metric_cell"`
	MetricValue   string `yaml:"metric_value" json:"metric_value"`
	MetricChange  string `yaml:"metric_change" json:"metric_change"`
	TableTitle    string `yaml:"table_title" json:"table_title"`
	TableValue    string `yaml:"table_value" json:"table_value"`
	RatiosTable   string `yaml:"ratios_table" json:"ratios_table"`
	StrategyTitle string `yaml:"strategy_title" json:"strategy_title"`
	StrategyGroup string `yaml:"strategy_group" json:"strategy_group"`
}

// SymbolAttrs are checked in order when extracting an identifier from a row
var SymbolAttrs = []string{"data-symbol", "data-symbol-id", "data-symbol-short", "data-symbol-full"}

// DefaultSelectors returns the selectors for the current site build
func DefaultSelectors() Selectors {
	return Selectors{
		WatchlistWidget: `[data-test-id-widget-type="watchlist"]`,
		CollectionTitle: `[data-name="watchlists-button"] .titleRow-mQBvegEO, [data-name="watchlists-button"] span`,
		ListContainers: []string{
			".listContainer-MgF6KBas",
			`[data-name="tree"]`,
			`[data-name="symbol-list-wrap"]`,
		},
		Row:           ".symbol-RsFlttSS",
		RowWithSymbol: ".symbol-RsFlttSS[data-symbol-short], .symbol-RsFlttSS[data-symbol-full]",
		RowWrap:       ".wrap-IEe5qpW4",
		RowSymbolText: ".symbolNameText-RsFlttSS",
		RemoveButton:  ".removeButton-RsFlttSS, .removeButton-Tf8QRdrk",
		Table:         "table",
		TableRow:      "tbody tr",

		HeaderSymbolInput: `input[data-name='header-symbol-search'], input[placeholder*='Symbol']`,
		TimeframeButton:   `[data-name="timeframes-toolbar"] button, [data-name="timeframe"]`,
		IndicatorsButton:  `[data-name="indicator-button"], [data-name="indicators"]`,
		OptionCandidates:  "div, span, button",
		EvaluationFrom:    `input[data-role='backtest-from'], input[placeholder*='From']`,
		EvaluationTo:      `input[data-role='backtest-to'], input[placeholder*='To']`,
		TesterTabLabels:   []string{"策略测试", "Strategy Tester"},
		ReportTabLabels:   []string{"策略报告", "策略测试", "Strategy Report", "Strategy Tester"},
		MetricsTabLabels:  []string{"指标", "Metrics"},
		ConfirmPattern:    `(?i)应用|确定|Apply|OK`,

		OutdatedSnackbar:   `[data-qa-id="backtesting-updated-report-snackbar"]`,
		SnackbarButton:     "button.snackbarButton-GBq6Mkel",
		UpdateReportLabels: []string{"更新报告", "Update report"},

		ReportRoot:    `[data-name="backtesting"], #bottom-area`,
		MetricTitle:   ".title-nEWm7_ye",
		MetricCell:    ".containerCell-zres18Ue",
		MetricValue:   ".highlightedValue-DiHajR6I, .value-DiHajR6I",
		MetricChange:  ".change-DiHajR6I",
		TableTitle:    ".title-fArEbVva",
		TableValue:    ".value-SLMKagwH",
		RatiosTable:   `[data-qa-id="ratios-table"]`,
		StrategyTitle: "[data-strategy-title]",
		StrategyGroup: `.strategyGroup-rQLA_iPz [role='button'], [data-name='strategy-group'] [role='button']`,
	}
}

// Merge overlays non-empty fields of o onto s
func (s Selectors) Merge(o Selectors) Selectors {
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	list := func(dst *[]string, v []string) {
		if len(v) > 0 {
			*dst = append([]string(nil), v...)
		}
	}

	str(&s.WatchlistWidget, o.WatchlistWidget)
	str(&s.CollectionTitle, o.CollectionTitle)
	list(&s.ListContainers, o.ListContainers)
	str(&s.Row, o.Row)
	str(&s.RowWithSymbol, o.RowWithSymbol)
	str(&s.RowWrap, o.RowWrap)
	str(&s.RowSymbolText, o.RowSymbolText)
	str(&s.RemoveButton, o.RemoveButton)
	str(&s.Table, o.Table)
	str(&s.TableRow, o.TableRow)
	str(&s.HeaderSymbolInput, o.HeaderSymbolInput)
	str(&s.TimeframeButton, o.TimeframeButton)
	str(&s.IndicatorsButton, o.IndicatorsButton)
	str(&s.OptionCandidates, o.OptionCandidates)
	str(&s.EvaluationFrom, o.EvaluationFrom)
	str(&s.EvaluationTo, o.EvaluationTo)
	list(&s.TesterTabLabels, o.TesterTabLabels)
	list(&s.ReportTabLabels, o.ReportTabLabels)
	list(&s.MetricsTabLabels, o.MetricsTabLabels)
	str(&s.ConfirmPattern, o.ConfirmPattern)
	str(&s.OutdatedSnackbar, o.OutdatedSnackbar)
	str(&s.SnackbarButton, o.SnackbarButton)
	list(&s.UpdateReportLabels, o.UpdateReportLabels)
	str(&s.ReportRoot, o.ReportRoot)
	str(&s.MetricTitle, o.MetricTitle)
	str(&s.MetricCell, o.MetricCell)
	str(&s.MetricValue, o.MetricValue)
	str(&s.MetricChange, o.MetricChange)
	str(&s.TableTitle, o.TableTitle)
	str(&s.TableValue, o.TableValue)
	str(&s.RatiosTable, o.RatiosTable)
	str(&s.StrategyTitle, o.StrategyTitle)
	str(&s.StrategyGroup, o.StrategyGroup)
	return s
}
