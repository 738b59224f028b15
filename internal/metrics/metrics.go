// Package metrics registers the Prometheus metrics used by the umbridge
// server and client. Import this package (via blank import, or directly
// from the server entry point) to register all metrics before the
// /metrics handler is mounted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Server-side counters and histograms.
var (
	// RequestsTotal counts completed operation requests labelled by model,
	// operation ("Evaluate", "Gradient", "ApplyJacobian", "ApplyHessian"), and
	// outcome ("ok", "error").
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umbridge_requests_total",
			Help: "Total number of model operation requests processed by the server.",
		},
		[]string{"model", "operation", "status"},
	)

	// RequestDuration observes end-to-end request latency in seconds, from
	// the moment the handler parses the body to the moment it writes the
	// response (including time spent queued in the evaluator pool).
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "umbridge_request_duration_seconds",
			Help:    "End-to-end request duration in seconds.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model", "operation"},
	)

	// PoolQueueDepth is a gauge of calls currently waiting for a slot in the
	// evaluator execution pool, labelled by model. Calls already running are
	// not counted.
	PoolQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "umbridge_pool_queue_depth",
			Help: "Number of model calls currently waiting for a slot in the evaluator pool.",
		},
		[]string{"model"},
	)

	// ErrorsTotal counts protocol errors by taxonomy type ("InvalidInput",
	// "UnsupportedFeature", "ModelNotFound", "InvalidOutput").
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umbridge_errors_total",
			Help: "Total protocol errors by taxonomy type.",
		},
		[]string{"model", "error_type"},
	)

	// ShMemFallbackTotal counts client-side TestShMem probes that failed and
	// caused the fast path to be disabled for a (url, name) binding.
	ShMemFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umbridge_shmem_fallback_total",
			Help: "Total shared-memory probe failures that forced a client to fall back to HTTP-only.",
		},
		[]string{"model"},
	)

	// CircuitBreakerState tracks the client transport circuit breaker state as
	// a gauge: 0 = closed, 1 = open, 2 = half_open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "umbridge_client_circuit_breaker_state",
			Help: "Client transport circuit breaker state per server URL (0=closed 1=open 2=half_open).",
		},
		[]string{"url"},
	)
)
