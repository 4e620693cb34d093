package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the job scrapers.
type Metrics struct {
	Registry       *prometheus.Registry
	JobsTotal      *prometheus.CounterVec
	RequestsTotal  *prometheus.CounterVec
	ScrapeDuration *prometheus.HistogramVec
	ErrorsTotal    *prometheus.CounterVec
	SourcesUpTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	jobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gravyjobs_jobs_scraped_total",
			Help: "Total job postings extracted, by source.",
		},
		[]string{"source"},
	)
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gravyjobs_requests_total",
			Help: "Total HTTP requests issued, by source.",
		},
		[]string{"source"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gravyjobs_scrape_duration_seconds",
			Help:    "Wall time per source scrape.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gravyjobs_errors_total",
			Help: "Total scrape errors, by source and type.",
		},
		[]string{"source", "error_type"},
	)
	sourcesUp := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gravyjobs_source_runs_total",
			Help: "Completed source runs, by outcome.",
		},
		[]string{"source", "outcome"},
	)

	registry.MustRegister(jobs, requests, duration, errorsTotal, sourcesUp)

	return &Metrics{
		Registry:       registry,
		JobsTotal:      jobs,
		RequestsTotal:  requests,
		ScrapeDuration: duration,
		ErrorsTotal:    errorsTotal,
		SourcesUpTotal: sourcesUp,
	}
}

// AddJobs counts extracted postings for a source.
func (m *Metrics) AddJobs(source string, n int) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(source).Add(float64(n))
}

// IncRequest counts one outbound request for a source.
func (m *Metrics) IncRequest(source string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(source).Inc()
}

// ObserveScrape records how long a source run took.
func (m *Metrics) ObserveScrape(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDuration.WithLabelValues(source).Observe(d.Seconds())
}

// IncError counts one scrape error for a source and type label.
func (m *Metrics) IncError(source, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(source, errorType).Inc()
}

// IncRun counts a completed source run by outcome.
func (m *Metrics) IncRun(source, outcome string) {
	if m == nil {
		return
	}
	m.SourcesUpTotal.WithLabelValues(source, outcome).Inc()
}
