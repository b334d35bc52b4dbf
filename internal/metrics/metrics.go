// Package metrics defines Prometheus metrics for kbequiv.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kbequiv_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbequiv_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kbequiv_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbequiv_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	OracleCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbequiv_oracle_calls_total",
			Help: "Oracle queries by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	OracleCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kbequiv_oracle_call_duration_seconds",
			Help:    "Oracle query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbequiv_resolutions_total",
			Help: "Resolution calls by outcome",
		},
		[]string{"outcome"},
	)

	ResolutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kbequiv_resolution_duration_seconds",
			Help:    "End-to-end resolution latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ResolutionSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kbequiv_resolution_vertices",
			Help:    "Vertices first discovered per stage",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, RequestsInFlight, ErrorsTotal,
		OracleCallsTotal, OracleCallDuration,
		ResolutionsTotal, ResolutionDuration, ResolutionSize,
	)
}
