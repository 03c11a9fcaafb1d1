// Package metrics holds the prometheus collectors for jobs and stored results.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "comments_fetcher"

// Job outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Metrics groups the application collectors under one registry.
// A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	jobsStarted      *prometheus.CounterVec
	jobsFinished     *prometheus.CounterVec
	jobsRunning      *prometheus.GaugeVec
	jobDuration      *prometheus.HistogramVec
	commentsAnalyzed prometheus.Counter
	resultsDeleted   prometheus.Counter
}

// New creates the collectors on a fresh registry with Go runtime metrics
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_started_total",
			Help:      "Jobs accepted for processing.",
		}, []string{"kind"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Jobs that reached a terminal state.",
		}, []string{"kind", "outcome"}),
		jobsRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_running",
			Help:      "Jobs currently executing.",
		}, []string{"kind"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of finished jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"kind", "outcome"}),
		commentsAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_analyzed_total",
			Help:      "Comments fed into the analyzer.",
		}),
		resultsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_deleted_total",
			Help:      "Stored results removed by retention or admin cleanup.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobsStarted,
		m.jobsFinished,
		m.jobsRunning,
		m.jobDuration,
		m.commentsAnalyzed,
		m.resultsDeleted,
	)

	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.InstrumentMetricHandler(m.registry, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// JobStarted records a job entering execution
func (m *Metrics) JobStarted(kind string) {
	if m == nil {
		return
	}
	m.jobsStarted.WithLabelValues(kind).Inc()
	m.jobsRunning.WithLabelValues(kind).Inc()
}

// JobFinished records a job's terminal state and duration
func (m *Metrics) JobFinished(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobsRunning.WithLabelValues(kind).Dec()
	m.jobsFinished.WithLabelValues(kind, outcome).Inc()
	m.jobDuration.WithLabelValues(kind, outcome).Observe(elapsed.Seconds())
}

// CommentsAnalyzed adds to the analyzed comment total
func (m *Metrics) CommentsAnalyzed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.commentsAnalyzed.Add(float64(n))
}

// ResultsDeleted adds to the deleted result total
func (m *Metrics) ResultsDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.resultsDeleted.Add(float64(n))
}
