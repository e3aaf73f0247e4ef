// Package metrics exposes Prometheus collectors for the extraction pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dipex"

// Commit outcomes.
const (
	CommitOK       = "ok"
	CommitInvalid  = "invalid"
	CommitNotFound = "not_found"
	CommitFailed   = "failed"
)

// Metrics implements pipeline.Observer and records commit outcomes.
type Metrics struct {
	registry         *prometheus.Registry
	extractions      *prometheus.CounterVec
	stageUnavailable *prometheus.CounterVec
	duration         prometheus.Histogram
	commits          *prometheus.CounterVec
}

// New registers the pipeline collectors, plus Go and process collectors, on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extractions completed, by the source that produced the candidate.",
		}, []string{"source"}),
		stageUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_unavailable_total",
			Help:      "Extraction stages that produced no usable text.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Wall time of one extraction.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Record commits, by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.extractions,
		m.stageUnavailable,
		m.duration,
		m.commits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) StageUnavailable(stage, _ string) {
	m.stageUnavailable.WithLabelValues(stage).Inc()
}

func (m *Metrics) Extracted(source string, elapsed time.Duration) {
	m.extractions.WithLabelValues(source).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) CommitRecorded(outcome string) {
	m.commits.WithLabelValues(outcome).Inc()
}

// Registry is exposed for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
