package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	mirrorPublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remobridge",
		Subsystem: "telemetry",
		Name:      "mirror_publish_total",
		Help:      "Retained state documents published to MQTT by result.",
	}, []string{"kind", "result"})

	recorderPointsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "remobridge",
		Subsystem: "telemetry",
		Name:      "recorder_points_total",
		Help:      "Sensor reading points queued for InfluxDB.",
	})
)

// MetricsCollectors returns the collectors of this package for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{mirrorPublishTotal, recorderPointsTotal}
}
