package application

import "github.com/prometheus/client_golang/prometheus"

var (
	txCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scpx",
		Name:      "tx_cache_hits_total",
		Help:      "Confirmed transactions served from the enrichment cache.",
	}, []string{"family"})
	txCacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scpx",
		Name:      "tx_cache_misses_total",
		Help:      "Transactions resolved through the chain data provider.",
	}, []string{"family"})
	providerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scpx",
		Name:      "provider_errors_total",
		Help:      "Failed provider calls, by chain and operation.",
	}, []string{"chain", "op"})
	refreshDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scpx",
		Name:      "refresh_duration_seconds",
		Help:      "Duration of full wallet refreshes, by outcome.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"outcome"})
	vaultOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scpx",
		Name:      "vault_operations_total",
		Help:      "Vault mutations, by operation and outcome.",
	}, []string{"op", "outcome"})
)

// MetricsCollectors returns the collectors of the application, to be
// registered by the daemon.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		txCacheHits, txCacheMisses, providerErrors, refreshDuration, vaultOperations,
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
