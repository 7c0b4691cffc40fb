package homekit

import "github.com/prometheus/client_golang/prometheus"

var (
	serverBuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "remobridge",
		Subsystem: "homekit",
		Name:      "server_builds_total",
		Help:      "HAP server (re)builds.",
	})

	remoteWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remobridge",
		Subsystem: "homekit",
		Name:      "remote_writes_total",
		Help:      "Controller writes by characteristic and result.",
	}, []string{"characteristic", "result"})

	servedAccessories = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "remobridge",
		Subsystem: "homekit",
		Name:      "served_accessories",
		Help:      "Accessories in the running HAP server, excluding the bridge.",
	})
)

// MetricsCollectors returns the collectors of this package for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{serverBuildsTotal, remoteWritesTotal, servedAccessories}
}
