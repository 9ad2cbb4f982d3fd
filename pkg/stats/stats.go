package stats

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
)

// EnableStatistics starts a goroutine that periodically logs the memory
// usage of the process along with the totals of the metrics gathered with
// the given prefix. It stops when ctx is done.
func EnableStatistics(
	ctx context.Context, interval time.Duration,
	gatherer prometheus.Gatherer, prefix string,
) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
				PrintMetrics(gatherer, prefix)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func toMegabytes(bytes uint64) float64 {
	return float64(bytes) / MEGABYTE
}

// PrintMemoryStatistics logs heap usage and the number of goroutines.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.WithFields(log.Fields{
		"total_alloc_mb": toMegabytes(memStats.TotalAlloc),
		"heap_alloc_mb":  toMegabytes(memStats.HeapAlloc),
		"goroutines":     runtime.NumGoroutine(),
	}).Info("memory statistics")
}

// PrintMetrics logs the totals returned by Totals.
func PrintMetrics(gatherer prometheus.Gatherer, prefix string) {
	totals, err := Totals(gatherer, prefix)
	if err != nil {
		log.WithError(err).Warn("failed to gather metrics")
		return
	}
	if len(totals) <= 0 {
		return
	}
	fields := make(log.Fields, len(totals))
	for name, v := range totals {
		fields[name] = v
	}
	log.WithFields(fields).Info("wallet statistics")
}

// Totals sums every counter and histogram count whose name has the given
// prefix, across all label values.
func Totals(gatherer prometheus.Gatherer, prefix string) (map[string]float64, error) {
	families, err := gatherer.Gather()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64)
	for _, f := range families {
		name := f.GetName()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				totals[name] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				totals[name] += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				totals[name] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return totals, nil
}
