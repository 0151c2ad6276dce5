// Package metrics provides Prometheus metrics export for the boardroom.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "boardroom"

// PrometheusExporter exports orchestration metrics in Prometheus format.
// It satisfies the orchestrator's Recorder.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Turn metrics
	turnLatency  *prometheus.HistogramVec
	turnRequests *prometheus.CounterVec

	// Gateway metrics
	gatewayErrors *prometheus.CounterVec

	// Deck metrics
	deckLatency   prometheus.Histogram
	deckSlides    prometheus.Counter
	imageFailures prometheus.Counter

	// Cache metrics
	cacheHits *prometheus.CounterVec

	// Session metrics
	sessionsActive   prometheus.Gauge
	sessionEvictions *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64

	// RuntimeCollectors adds the Go runtime and process collectors.
	RuntimeCollectors bool
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets:    []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		RuntimeCollectors: true,
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.turnLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "turn",
			Name:      "latency_seconds",
			Help:      "Turn latency in seconds, from user append to model append",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"outcome"},
	)

	e.turnRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "turn",
			Name:      "requests_total",
			Help:      "Total number of turns by routing outcome and status",
		},
		[]string{"outcome", "status"},
	)

	e.gatewayErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "errors_total",
			Help:      "Total number of failed model gateway operations",
		},
		[]string{"operation", "class"},
	)

	e.deckLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "deck",
			Name:      "latency_seconds",
			Help:      "Deck generation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.deckSlides = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deck",
			Name:      "slides_total",
			Help:      "Total number of generated slides",
		},
	)

	e.imageFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deck",
			Name:      "image_failures_total",
			Help:      "Total number of slides left without an image",
		},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of briefing and summary cache hits",
		},
		[]string{"cache_type"},
	)

	e.sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of live sessions",
		},
	)

	e.sessionEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "evictions_total",
			Help:      "Total number of evicted sessions by reason",
		},
		[]string{"reason"},
	)

	registry.MustRegister(
		e.turnLatency,
		e.turnRequests,
		e.gatewayErrors,
		e.deckLatency,
		e.deckSlides,
		e.imageFailures,
		e.cacheHits,
		e.sessionsActive,
		e.sessionEvictions,
	)
	if cfg.RuntimeCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return e
}

// RecordTurn records a finished turn.
func (e *PrometheusExporter) RecordTurn(outcome, status string, latency time.Duration) {
	e.turnRequests.WithLabelValues(outcome, status).Inc()
	e.turnLatency.WithLabelValues(outcome).Observe(latency.Seconds())
}

// RecordGatewayError records a failed gateway operation.
func (e *PrometheusExporter) RecordGatewayError(operation, class string) {
	e.gatewayErrors.WithLabelValues(operation, class).Inc()
}

// RecordDeck records a generated deck.
func (e *PrometheusExporter) RecordDeck(slides, imageFailures int, latency time.Duration) {
	e.deckSlides.Add(float64(slides))
	e.imageFailures.Add(float64(imageFailures))
	e.deckLatency.Observe(latency.Seconds())
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// SessionCreated increments the live session gauge.
func (e *PrometheusExporter) SessionCreated() {
	e.sessionsActive.Inc()
}

// SessionEvicted decrements the live session gauge and counts the reason.
func (e *PrometheusExporter) SessionEvicted(reason string) {
	e.sessionsActive.Dec()
	e.sessionEvictions.WithLabelValues(reason).Inc()
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// Registry returns the Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}
