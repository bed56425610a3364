// Package telemetry exposes Prometheus metrics for batch runs.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/tvbatch/internal/contracts"
)

// Metrics holds all Prometheus metrics for tvbatch
// Each instance owns its registry; methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	Runs           *prometheus.CounterVec
	ActiveRuns     prometheus.Gauge
	RunDuration    prometheus.Histogram
	Items          *prometheus.CounterVec
	ItemDuration   prometheus.Histogram
	SelectionSteps *prometheus.HistogramVec
	Refreshes      *prometheus.CounterVec
	Exports        *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tvbatch_runs_total",
				Help: "Finished batch runs by terminal status",
			},
			[]string{"status"},
		),

		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tvbatch_active_runs",
				Help: "Number of batch runs in progress (0 or 1)",
			},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tvbatch_run_duration_seconds",
				Help:    "Wall-clock duration of batch runs",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
			},
		),

		Items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tvbatch_items_total",
				Help: "Processed items by classifier verdict",
			},
			[]string{"verdict"},
		),

		ItemDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tvbatch_item_duration_seconds",
				Help:    "Time spent per item",
				Buckets: []float64{1, 2.5, 5, 10, 15, 20, 30, 45, 60},
			},
		),

		SelectionSteps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tvbatch_selection_transitions",
				Help:    "Selection FSM transitions needed per item",
				Buckets: []float64{1, 2, 3, 4, 5, 6},
			},
			[]string{"result"},
		),

		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tvbatch_refresh_total",
				Help: "Refresh synchronizations by outcome",
			},
			[]string{"result"},
		),

		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tvbatch_exports_total",
				Help: "Result set deliveries by outcome",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.Runs,
		m.ActiveRuns,
		m.RunDuration,
		m.Items,
		m.ItemDuration,
		m.SelectionSteps,
		m.Refreshes,
		m.Exports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RunStarted marks a run as active
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.ActiveRuns.Inc()
}

// RunFinished records the terminal status of a run
func (m *Metrics) RunFinished(status contracts.RunStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.ActiveRuns.Dec()
	m.Runs.WithLabelValues(string(status)).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// ItemProcessed records one item's verdict and duration
func (m *Metrics) ItemProcessed(v contracts.Verdict, d time.Duration) {
	if m == nil {
		return
	}
	m.Items.WithLabelValues(string(v)).Inc()
	m.ItemDuration.Observe(d.Seconds())
}

// SelectionFinished records how many FSM transitions a selection took
func (m *Metrics) SelectionFinished(selected bool, transitions int) {
	if m == nil {
		return
	}
	result := "failed"
	if selected {
		result = "verified"
	}
	m.SelectionSteps.WithLabelValues(result).Observe(float64(transitions))
}

// RefreshFinished records whether a recomputation was triggered
func (m *Metrics) RefreshFinished(refreshed bool) {
	if m == nil {
		return
	}
	result := "timeout"
	if refreshed {
		result = "refreshed"
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

// ExportFinished records a delivery outcome
func (m *Metrics) ExportFinished(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.Exports.WithLabelValues(result).Inc()
}
