package api

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remobridge_http_requests_total",
			Help: "HTTP requests served, by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remobridge_http_request_duration_seconds",
			Help:    "HTTP handler latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "remobridge_ws_clients",
			Help: "Connected WebSocket clients",
		},
	)
)

// MetricsCollectors exposes the API's collectors for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{requestsTotal, requestDuration, wsClients}
}
