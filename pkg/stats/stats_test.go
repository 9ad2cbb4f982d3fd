package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/scp-network/scpx-wallet/pkg/stats"
	"github.com/stretchr/testify/require"
)

func TestTotals(t *testing.T) {
	registry := prometheus.NewRegistry()
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scpx_tx_cache_hits_total",
	}, []string{"family"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "scpx_refresh_duration_seconds",
	}, []string{"outcome"})
	other := prometheus.NewCounter(prometheus.CounterOpts{Name: "other_total"})
	registry.MustRegister(hits, duration, other)

	hits.WithLabelValues("ETH").Add(3)
	hits.WithLabelValues("BTC").Add(2)
	duration.WithLabelValues("ok").Observe(1)
	duration.WithLabelValues("error").Observe(2)
	other.Inc()

	totals, err := stats.Totals(registry, "scpx_")
	require.NoError(t, err)
	require.Equal(t, map[string]float64{
		"scpx_tx_cache_hits_total":      5,
		"scpx_refresh_duration_seconds": 2,
	}, totals)
}

func TestEnableStatistics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stats.EnableStatistics(ctx, 5*time.Millisecond, prometheus.NewRegistry(), "scpx_")
	time.Sleep(20 * time.Millisecond)
	cancel()

	// A non-positive interval is a no-op.
	stats.EnableStatistics(context.Background(), 0, prometheus.NewRegistry(), "scpx_")
}
