package resolve

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// resolveMetrics holds the Prometheus instruments for the resolution path.
type resolveMetrics struct {
	resolutionsTotal *prometheus.CounterVec
	cacheHitsTotal   prometheus.Counter
}

var (
	metricsOnce     sync.Once
	metricsInstance *resolveMetrics
)

// getResolveMetrics lazily registers the resolution metrics.
func getResolveMetrics() *resolveMetrics {
	metricsOnce.Do(func() {
		metricsInstance = &resolveMetrics{
			resolutionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "router_resolutions_total",
					Help: "Total number of request resolutions by strategy",
				},
				[]string{"strategy"},
			),
			cacheHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "router_resolution_cache_hits_total",
					Help: "Total number of resolution result cache hits",
				},
			),
		}
	})
	return metricsInstance
}
