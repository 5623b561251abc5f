// Package metrics exposes the pipeline's Prometheus counters.
//
// Every method is safe on a nil *Metrics so components can run without
// instrumentation in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "opphub"

// Metrics holds the collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	// Source adapters
	SourceRecords  *prometheus.CounterVec
	SourceFailures *prometheus.CounterVec
	SourceFetch    *prometheus.HistogramVec

	// Refresh controller
	RefreshRuns    *prometheus.CounterVec
	RefreshRecords *prometheus.CounterVec

	// Retention
	CleanupDeleted *prometheus.CounterVec
}

// New builds a private registry so that several instances (tests) never
// collide on the default one.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SourceRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_records_total",
			Help:      "Records returned by each source adapter after filtering",
		}, []string{"source"}),

		SourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Recovered source adapter failures",
		}, []string{"source"}),

		SourceFetch: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_seconds",
			Help:      "Wall time of one adapter fetch",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),

		RefreshRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "Refresh runs by final status",
		}, []string{"status"}),

		RefreshRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_records_total",
			Help:      "Persisted records by outcome (added, updated, skipped)",
		}, []string{"outcome"}),

		CleanupDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_deleted_total",
			Help:      "Records removed by the retention cleanup",
		}, []string{"reason"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveSource(source string, records int, took time.Duration) {
	if m == nil {
		return
	}
	m.SourceRecords.WithLabelValues(source).Add(float64(records))
	m.SourceFetch.WithLabelValues(source).Observe(took.Seconds())
}

func (m *Metrics) SourceFailed(source string) {
	if m == nil {
		return
	}
	m.SourceFailures.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveRefresh(status string, added, updated, skipped int) {
	if m == nil {
		return
	}
	m.RefreshRuns.WithLabelValues(status).Inc()
	m.RefreshRecords.WithLabelValues("added").Add(float64(added))
	m.RefreshRecords.WithLabelValues("updated").Add(float64(updated))
	m.RefreshRecords.WithLabelValues("skipped").Add(float64(skipped))
}

func (m *Metrics) CleanupDeletedInc(reason string) {
	if m == nil {
		return
	}
	m.CleanupDeleted.WithLabelValues(reason).Inc()
}
