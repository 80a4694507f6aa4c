// ABOUTME: Prometheus counters for refresh cycles, commits and extraction calls
// ABOUTME: Uses a private registry served over promhttp when enabled

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deadline_mcp"

// Result label values.
const (
	ResultCommitted = "committed"
	ResultStale     = "stale"
	ResultFailed    = "failed"
	ResultOK        = "ok"
	ResultRejected  = "rejected"
)

// Metrics holds the process counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RefreshCycles *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	Commits       *prometheus.CounterVec
	Extractions   *prometheus.CounterVec
}

// New creates and registers all counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RefreshCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Aggregation cycles by outcome.",
		}, []string{"result"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_fetch_failures_total",
			Help:      "Per-calendar event fetches that failed and were degraded to empty.",
		}, []string{"calendar_id"}),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Event writes by outcome.",
		}, []string{"source", "result"}),
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_calls_total",
			Help:      "Calls to the extraction service by outcome.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.RefreshCycles,
		m.FetchFailures,
		m.Commits,
		m.Extractions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Refresh records one aggregation cycle outcome.
func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.RefreshCycles.WithLabelValues(result).Inc()
}

// FetchFailed records a degraded per-calendar fetch.
func (m *Metrics) FetchFailed(calendarID string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(calendarID).Inc()
}

// Commit records an event write; source is "assignment" or "manual".
func (m *Metrics) Commit(source, result string) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(source, result).Inc()
}

// Extraction records one extraction call outcome.
func (m *Metrics) Extraction(result string) {
	if m == nil {
		return
	}
	m.Extractions.WithLabelValues(result).Inc()
}
