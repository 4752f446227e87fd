package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// routerMetrics holds the Prometheus instruments for the match path.
type routerMetrics struct {
	matchesTotal  *prometheus.CounterVec
	matchDuration prometheus.Histogram
}

var (
	metricsOnce     sync.Once
	metricsInstance *routerMetrics
)

// getRouterMetrics lazily registers the match metrics.
func getRouterMetrics() *routerMetrics {
	metricsOnce.Do(func() {
		metricsInstance = &routerMetrics{
			matchesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "router_matches_total",
					Help: "Total number of route table match attempts",
				},
				[]string{"outcome"},
			),
			matchDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "router_match_duration_seconds",
					Help:    "Duration of route table scans in seconds",
					Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
				},
			),
		}
	})
	return metricsInstance
}
