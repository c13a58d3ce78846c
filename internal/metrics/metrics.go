// Package metrics provides Prometheus metrics collection for the embedding
// gateway: request counts, failures by error type, latencies, batch sizes,
// and cache effectiveness.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "embedmux"

// LatencyBuckets defines histogram buckets for latency metrics (in seconds).
// Remote embedding calls cluster well under ten seconds; the tail exists for
// large batches against slow self-hosted servers.
var LatencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5,
	1.0, 2.5, 5.0, 10.0, 30.0, 60.0,
}

var (
	// RequestsTotal counts embedding requests by provider, model, and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	// FailedRequests counts failed embedding requests by error type.
	FailedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_requests_total",
			Help:      "Total number of failed embedding requests",
		},
		[]string{"provider", "model", "error_type"},
	)

	// RequestLatency tracks end-to-end embedding request latency.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "End-to-end embedding request latency in seconds",
			Buckets:   LatencyBuckets,
		},
		[]string{"provider", "model"},
	)

	// BatchSize tracks the number of inputs per embedding request.
	BatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of inputs per embedding request",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024},
		},
		[]string{"provider", "model"},
	)

	// CacheHits counts embedding cache hits.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of embedding cache hits",
		},
		[]string{"provider", "model"},
	)

	// CacheMisses counts embedding cache misses.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of embedding cache misses",
		},
		[]string{"provider", "model"},
	)
)

// ObserveRequest records one completed request.
func ObserveRequest(provider, model, status string, batch int, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(provider, model, status).Inc()
	RequestLatency.WithLabelValues(provider, model).Observe(elapsed.Seconds())
	BatchSize.WithLabelValues(provider, model).Observe(float64(batch))
}

// ObserveFailure records one failed request by error type.
func ObserveFailure(provider, model, errorType string) {
	FailedRequests.WithLabelValues(provider, model, errorType).Inc()
}
