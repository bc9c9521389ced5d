// Package metrics exposes Prometheus instrumentation for classifications,
// batches and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns one set of collectors registered on one registry. A nil
// *Recorder records nothing.
type Recorder struct {
	gatherer prometheus.Gatherer

	classifications *prometheus.CounterVec
	shortCircuits   prometheus.Counter
	errors          *prometheus.CounterVec
	duration        prometheus.Histogram
	batchSize       prometheus.Histogram
	httpRequests    *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the collectors on reg. Registering twice on the
// same registry panics.
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		classifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishcatcher_classifications_total",
				Help: "Total number of completed classifications, labeled by verdict.",
			},
			[]string{"label"},
		),
		shortCircuits: f.NewCounter(
			prometheus.CounterOpts{
				Name: "phishcatcher_trusted_short_circuits_total",
				Help: "Classifications answered by the trusted-domain allowlist without the model.",
			},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishcatcher_classification_errors_total",
				Help: "Total number of failed classifications, labeled by error kind.",
			},
			[]string{"kind"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "phishcatcher_classification_duration_seconds",
				Help:    "Duration of a single classification in seconds.",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
		),
		batchSize: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "phishcatcher_batch_size",
				Help:    "Number of URLs per batch request.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishcatcher_http_requests_total",
				Help: "HTTP API requests, labeled by route and status code.",
			},
			[]string{"route", "status_code"},
		),
	}
}

// Classified records a successful classification.
func (r *Recorder) Classified(label string, shortCircuited bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.classifications.WithLabelValues(label).Inc()
	if shortCircuited {
		r.shortCircuits.Inc()
	}
	r.duration.Observe(elapsed.Seconds())
}

// Failed records a classification error of the given kind
// ("parse", "extraction", "configuration", "canceled", ...).
func (r *Recorder) Failed(kind string) {
	if r == nil {
		return
	}
	r.errors.WithLabelValues(kind).Inc()
}

// Batch records the size of a batch run.
func (r *Recorder) Batch(n int) {
	if r == nil {
		return
	}
	r.batchSize.Observe(float64(n))
}

// HTTPRequest counts one API request.
func (r *Recorder) HTTPRequest(route, statusCode string) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, statusCode).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
