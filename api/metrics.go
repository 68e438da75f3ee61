package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	quotesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "premium",
			Subsystem: "api",
			Name:      "quotes_issued_total",
			Help:      "Total number of premium quotes issued.",
		},
		[]string{"domain", "strategy"},
	)

	requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "premium",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total number of failed requests by error code.",
		},
		[]string{"route", "code"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "premium",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	// Safe register; ignore duplicate registration
	_ = prometheus.Register(quotesIssued)
	_ = prometheus.Register(requestErrors)
	_ = prometheus.Register(requestDuration)
}
