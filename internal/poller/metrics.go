package poller

import "github.com/prometheus/client_golang/prometheus"

var (
	publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remobridge_snapshot_publish_total",
			Help: "Snapshots published per resource",
		},
		[]string{"resource"},
	)
	staleTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remobridge_snapshot_stale_total",
			Help: "Poll ticks that kept the previous snapshot because the fetch failed",
		},
		[]string{"resource"},
	)
	snapshotSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "remobridge_snapshot_items",
			Help: "Number of entities in the last published snapshot",
		},
		[]string{"resource"},
	)
)

// MetricsCollectors exposes the poller's collectors for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{publishTotal, staleTotal, snapshotSize}
}
