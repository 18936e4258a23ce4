package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type accountMetrics struct {
	loaded   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

var (
	accountMetricsOnce sync.Once
	accountRegistry    *accountMetrics
)

// AccountMetrics returns the registry tracking accounts pulled into the
// local cache.
func AccountMetrics() *accountMetrics {
	accountMetricsOnce.Do(func() {
		accountRegistry = &accountMetrics{
			loaded: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nhb",
				Subsystem: "repay_accounts",
				Name:      "loaded_total",
				Help:      "Accounts loaded into the cache segmented by kind.",
			}, []string{"kind"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nhb",
				Subsystem: "repay_accounts",
				Name:      "load_failures_total",
				Help:      "Accounts that could not be fetched or parsed, segmented by kind.",
			}, []string{"kind"}),
		}
		prometheus.MustRegister(accountRegistry.loaded, accountRegistry.failures)
	})
	return accountRegistry
}

// RecordLoaded adds n to the loaded counter for kind.
func (m *accountMetrics) RecordLoaded(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.loaded.WithLabelValues(normalizeKind(kind)).Add(float64(n))
}

// RecordFailure increments the failure counter for kind.
func (m *accountMetrics) RecordFailure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(normalizeKind(kind)).Inc()
}

func normalizeKind(kind string) string {
	normalized := strings.TrimSpace(strings.ToLower(kind))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
