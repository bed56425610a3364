package contracts

import (
	"math"
	"time"
)

// Defaults applied whenever a numeric field is missing or non-finite
const (
	DefaultMaxItems                = 50
	DefaultInterItemDelayMs        = 8000
	DefaultMinPrimaryMetricPercent = 13.0
	DefaultMinSecondaryRatio       = 1.2
	DefaultExportDestination       = "tradingview_backtest.csv"
)

// DropAction decides what happens to a row whose metrics fall below threshold
type DropAction string

const (
	DropDelete DropAction = "delete"
	DropMark   DropAction = "mark"
)

// RunConfig is the per-run configuration supplied by a runconfig.Provider
// ⭐ SSOT: 배치 실행 설정 구조체는 여기서만 정의
//
// Threshold fields are pointers so "absent" stays distinguishable from an
// explicit zero.
type RunConfig struct {
	StrategyName            string          `json:"strategyName" yaml:"strategy_name"`
	Timeframe               string          `json:"timeframe" yaml:"timeframe"`
	EvaluationFrom          string          `json:"evaluationFrom" yaml:"evaluation_from"`
	EvaluationTo            string          `json:"evaluationTo" yaml:"evaluation_to"`
	MaxItems                int             `json:"maxItems" yaml:"max_items"`
	InterItemDelayMs        int             `json:"interItemDelayMs" yaml:"inter_item_delay_ms"`
	MinPrimaryMetricPercent *float64        `json:"minPrimaryMetricPercent,omitempty" yaml:"min_primary_metric_percent,omitempty"`
	MinSecondaryRatio       *float64        `json:"minSecondaryRatio,omitempty" yaml:"min_secondary_ratio,omitempty"`
	ExportDestination       string          `json:"exportDestination" yaml:"export_destination"`
	Sources                 []ListingSource `json:"sources,omitempty" yaml:"sources,omitempty"`
	DropAction              DropAction      `json:"dropAction,omitempty" yaml:"drop_action,omitempty"`
}

// DefaultSources are the watchlists tried before the table fallback
func DefaultSources() []ListingSource {
	return []ListingSource{
		NamedCollection("A股可交易", "CN"),
		NamedCollection("美股可交易", "US"),
		NamedCollection("港股可交易", "HK"),
		TabularFallback(),
	}
}

// DefaultRunConfig returns a configuration with every default applied
func DefaultRunConfig() RunConfig {
	return RunConfig{}.Normalized()
}

// Normalized returns a copy with defaults applied to missing/invalid fields
func (c RunConfig) Normalized() RunConfig {
	out := c
	out.MaxItems = c.EffectiveMaxItems()
	if c.InterItemDelayMs <= 0 {
		out.InterItemDelayMs = DefaultInterItemDelayMs
	}
	th := c.Thresholds()
	out.MinPrimaryMetricPercent = &th.MinPrimaryPercent
	out.MinSecondaryRatio = &th.MinSecondaryRatio
	if out.ExportDestination == "" {
		out.ExportDestination = DefaultExportDestination
	}
	if len(out.Sources) == 0 {
		out.Sources = DefaultSources()
	} else {
		out.Sources = append([]ListingSource(nil), c.Sources...)
	}
	if out.DropAction != DropMark {
		out.DropAction = DropDelete
	}
	return out
}

// EffectiveMaxItems returns MaxItems or its default
func (c RunConfig) EffectiveMaxItems() int {
	if c.MaxItems <= 0 {
		return DefaultMaxItems
	}
	return c.MaxItems
}

// InterItemDelay returns the settle delay between selection and the results view
func (c RunConfig) InterItemDelay() time.Duration {
	if c.InterItemDelayMs <= 0 {
		return DefaultInterItemDelayMs * time.Millisecond
	}
	return time.Duration(c.InterItemDelayMs) * time.Millisecond
}

// HasEvaluationRange reports whether any evaluation bound is set
func (c RunConfig) HasEvaluationRange() bool {
	return c.EvaluationFrom != "" || c.EvaluationTo != ""
}

// Thresholds are the classification limits
type Thresholds struct {
	MinPrimaryPercent float64 `json:"min_primary_percent"`
	MinSecondaryRatio float64 `json:"min_secondary_ratio"`
}

// DefaultThresholds returns 13% / 1.2
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinPrimaryPercent: DefaultMinPrimaryMetricPercent,
		MinSecondaryRatio: DefaultMinSecondaryRatio,
	}
}

// Thresholds resolves configured thresholds, falling back per field
func (c RunConfig) Thresholds() Thresholds {
	th := DefaultThresholds()
	if finite(c.MinPrimaryMetricPercent) {
		th.MinPrimaryPercent = *c.MinPrimaryMetricPercent
	}
	if finite(c.MinSecondaryRatio) {
		th.MinSecondaryRatio = *c.MinSecondaryRatio
	}
	return th
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
