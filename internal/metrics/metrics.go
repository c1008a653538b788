// Package metrics holds Prometheus collectors for per-source diagnostics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source call outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomePanic   = "panic"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SourceRequests *prometheus.CounterVec
	SourceJobs     *prometheus.CounterVec
	SourceDuration *prometheus.HistogramVec
	Searches       *prometheus.CounterVec
	Enrichments    *prometheus.CounterVec
	WatchNewJobs   *prometheus.CounterVec
}

// New creates the collectors on a private registry along with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SourceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpulse_source_requests_total",
				Help: "Upstream source calls by outcome.",
			},
			[]string{"source", "outcome"},
		),
		SourceJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpulse_source_jobs_total",
				Help: "Jobs returned by each upstream source.",
			},
			[]string{"source"},
		),
		SourceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobpulse_source_duration_seconds",
				Help:    "Latency of upstream source calls.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpulse_searches_total",
				Help: "Aggregated searches by outcome.",
			},
			[]string{"outcome"},
		),
		Enrichments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpulse_enrichments_total",
				Help: "Image enrichment attempts by resolution.",
			},
			[]string{"result"},
		),
		WatchNewJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpulse_watch_new_jobs_total",
				Help: "New postings found by saved-search watches.",
			},
			[]string{"watch"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SourceRequests,
		m.SourceJobs,
		m.SourceDuration,
		m.Searches,
		m.Enrichments,
		m.WatchNewJobs,
	)
	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSource records one upstream call.
func (m *Metrics) ObserveSource(source, outcome string, jobs int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SourceRequests.WithLabelValues(source, outcome).Inc()
	m.SourceJobs.WithLabelValues(source).Add(float64(jobs))
	m.SourceDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveSearch records one aggregation.
func (m *Metrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(outcome).Inc()
}

// ObserveEnrichment records how one job's image was resolved.
func (m *Metrics) ObserveEnrichment(result string) {
	if m == nil {
		return
	}
	m.Enrichments.WithLabelValues(result).Inc()
}

// ObserveWatch records new postings for a watch.
func (m *Metrics) ObserveWatch(watch string, newJobs int) {
	if m == nil {
		return
	}
	m.WatchNewJobs.WithLabelValues(watch).Add(float64(newJobs))
}
