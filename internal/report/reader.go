package report

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/tvbatch/internal/contracts"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/pkg/logger"
)

// Reader extracts metric text from the report view
// ⭐ SSOT: 백테스트 리포트 지표 추출은 이 Reader에서만
type Reader struct {
	report surface.Report
	sel    surface.Selectors
	labels Labels
	logger *logger.Logger
}

// NewReader creates a metric reader
func NewReader(report surface.Report, sel surface.Selectors, labels Labels, log *logger.Logger) *Reader {
	return &Reader{
		report: report,
		sel:    sel,
		labels: labels,
		logger: log,
	}
}

// Read returns the metric record for the active item. It never fails:
// anything missing is left as empty text.
func (r *Reader) Read(ctx context.Context, id, groupLabel string) contracts.MetricRecord {
	markup, err := r.report.ReportMarkup(ctx)
	if err != nil {
		r.logger.WithError(err).WithField("symbol", id).Warn("Report markup unavailable")
		return contracts.MetricRecord{Identifier: id, GroupLabel: groupLabel}
	}

	return Extract(markup, id, groupLabel, r.sel, r.labels)
}

// Extract parses report markup into a MetricRecord
func Extract(markup, id, groupLabel string, sel surface.Selectors, labels Labels) contracts.MetricRecord {
	rec := contracts.MetricRecord{Identifier: id, GroupLabel: groupLabel}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return rec
	}
	root := doc.Selection

	pnlValue, pnlPercent := card(root, sel, labels.TotalPnL)
	ddValue, ddPercent := card(root, sel, labels.MaxDrawdown)
	tradesValue, _ := card(root, sel, labels.TotalTrades)
	winValue, winPercent := card(root, sel, labels.ProfitableTrades)
	pfValue, _ := card(root, sel, labels.ProfitFactor)

	rec.StrategyName = strategyName(root, sel)
	rec.PrimaryMetricText = firstNonEmpty(pnlPercent, pnlValue)
	rec.DrawdownText = firstNonEmpty(ddPercent, ddValue)
	rec.TradeCountText = tradesValue
	rec.WinRateText = firstNonEmpty(winValue, winPercent)
	rec.ProfitFactorText = pfValue
	rec.SecondaryRatioText = ratio(root, sel, labels.SharpeRatio)

	return rec
}

// card reads a summary card by exact title: (value, percent)
func card(root *goquery.Selection, sel surface.Selectors, titles []string) (string, string) {
	var cell *goquery.Selection
	root.Find(sel.MetricTitle).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if containsExact(titles, Normalize(s.Text())) {
			cell = s.Closest(sel.MetricCell)
			return false
		}
		return true
	})
	if cell == nil || cell.Length() == 0 {
		return "", ""
	}

	value := Normalize(cell.Find(sel.MetricValue).First().Text())
	percent := Normalize(cell.Find(sel.MetricChange).First().Text())
	return value, percent
}

// ratio reads a table metric, preferring the ratios table when present
func ratio(root *goquery.Selection, sel surface.Selectors, titles []string) string {
	scope := root
	if ratios := root.Find(sel.RatiosTable); ratios.Length() > 0 {
		scope = ratios.First()
	}

	for _, title := range titles {
		if v := tableValue(scope, sel, title); v != "" {
			return v
		}
	}
	if scope != root {
		for _, title := range titles {
			if v := tableValue(root, sel, title); v != "" {
				return v
			}
		}
	}
	return ""
}

// tableValue finds the row labelled title and returns its first non-empty value cell
func tableValue(scope *goquery.Selection, sel surface.Selectors, title string) string {
	var row *goquery.Selection
	scope.Find(sel.TableTitle).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(Normalize(s.Text()), title) {
			row = s.Closest("tr")
			return false
		}
		return true
	})

	if row == nil || row.Length() == 0 {
		row = nil
		scope.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			if strings.Contains(Normalize(tr.Text()), title) {
				row = tr
				return false
			}
			return true
		})
	}
	if row == nil {
		return ""
	}

	values := row.Find(sel.TableValue)
	var found string
	values.EachWithBreak(func(_ int, v *goquery.Selection) bool {
		if text := Normalize(v.Text()); text != "" {
			found = text
			return false
		}
		return true
	})
	return found
}

func strategyName(root *goquery.Selection, sel surface.Selectors) string {
	if title, ok := root.Find(sel.StrategyTitle).First().Attr("data-strategy-title"); ok {
		if t := Normalize(title); t != "" {
			return t
		}
	}
	return Normalize(root.Find(sel.StrategyGroup).First().Text())
}

func containsExact(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
