package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type rpcMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	rpcMetricsOnce sync.Once
	rpcRegistry    *rpcMetrics

	repayMetricsOnce sync.Once
	repayRegistry    *RepayMetricsRegistry
)

// RPCMetrics returns the lazily-initialised registry used by the JSON-RPC
// client to record calls against the node.
func RPCMetrics() *rpcMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &rpcMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nhb",
				Subsystem: "repay_rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC calls segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nhb",
				Subsystem: "repay_rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC failures segmented by method and error class.",
			}, []string{"method", "class"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "nhb",
				Subsystem: "repay_rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nhb",
				Subsystem: "repay_rpc",
				Name:      "throttles_total",
				Help:      "Count of JSON-RPC calls that waited on or were rejected by the client rate limiter.",
			}, []string{"method", "reason"}),
		}
		prometheus.MustRegister(
			rpcRegistry.requests,
			rpcRegistry.errors,
			rpcRegistry.latency,
			rpcRegistry.throttles,
		)
	})
	return rpcRegistry
}

// Observe records the outcome of a JSON-RPC call. class is empty on success
// and otherwise a stable label such as "transport", "http" or "rpc".
func (m *rpcMetrics) Observe(method, class string, duration time.Duration) {
	if m == nil {
		return
	}
	method = labelOrUnknown(method)
	outcome := "success"
	if class != "" {
		outcome = "error"
		m.errors.WithLabelValues(method, class).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter. Reasons should be stable
// strings such as "wait" or "rejected".
func (m *rpcMetrics) RecordThrottle(method, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(labelOrUnknown(method), reason).Inc()
}

// RepayMetricsRegistry captures the outcome of repay clicks.
type RepayMetricsRegistry struct {
	submissions *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	latency     prometheus.Histogram
}

// RepayMetrics returns the singleton registry tracking repay submissions.
func RepayMetrics() *RepayMetricsRegistry {
	repayMetricsOnce.Do(func() {
		repayRegistry = &RepayMetricsRegistry{
			submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nhb",
				Subsystem: "repay",
				Name:      "submissions_total",
				Help:      "Repay submissions segmented by outcome.",
			}, []string{"outcome"}),
			skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nhb",
				Subsystem: "repay",
				Name:      "skipped_total",
				Help:      "Repay clicks ignored because a precondition was not met.",
			}, []string{"reason"}),
			latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "nhb",
				Subsystem: "repay",
				Name:      "submit_duration_seconds",
				Help:      "Time from submission to outcome.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			}),
		}
		prometheus.MustRegister(repayRegistry.submissions, repayRegistry.skipped, repayRegistry.latency)
	})
	return repayRegistry
}

// RecordSkipped counts a repay click ignored for reason.
func (m *RepayMetricsRegistry) RecordSkipped(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(labelOrUnknown(strings.ReplaceAll(reason, " ", "_"))).Inc()
}

// RecordSubmission counts a resolved submission and its latency.
func (m *RepayMetricsRegistry) RecordSubmission(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(labelOrUnknown(outcome)).Inc()
	m.latency.Observe(elapsed.Seconds())
}

func labelOrUnknown(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
