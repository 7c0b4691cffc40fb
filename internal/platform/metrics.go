package platform

import "github.com/prometheus/client_golang/prometheus"

var (
	registeredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remobridge_accessories_registered_total",
			Help: "Accessories registered with the host",
		},
		[]string{"category"},
	)
	unregisteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remobridge_accessories_unregistered_total",
			Help: "Accessories retired because their entity left the snapshot",
		},
		[]string{"category"},
	)
	reboundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remobridge_accessories_rebound_total",
			Help: "Existing accessories bound to refreshed entity data",
		},
		[]string{"category"},
	)
	bindFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remobridge_accessory_bind_failures_total",
			Help: "Adapter bind or host registration failures",
		},
		[]string{"category"},
	)
	accessoriesGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "remobridge_accessories",
			Help: "Accessories currently known to the platform",
		},
		[]string{"category"},
	)
)

// MetricsCollectors exposes the platform's collectors for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		registeredTotal,
		unregisteredTotal,
		reboundTotal,
		bindFailuresTotal,
		accessoriesGauge,
	}
}
