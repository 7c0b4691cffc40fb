package remo

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remo_api_requests_total",
			Help: "Nature Remo API requests by endpoint and outcome",
		},
		[]string{"endpoint", "code"},
	)
	rateLimitGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "remo_rate_limit_limit",
			Help: "Request allowance of the current rate-limit window",
		},
	)
	rateRemainingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "remo_rate_limit_remaining",
			Help: "Requests left in the current rate-limit window",
		},
	)
	rateResetGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "remo_rate_limit_reset_timestamp_seconds",
			Help: "Unix time at which the current rate-limit window resets",
		},
	)
)

// MetricsCollectors exposes the gateway's collectors for registration.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		requestsTotal,
		rateLimitGauge,
		rateRemainingGauge,
		rateResetGauge,
	}
}
