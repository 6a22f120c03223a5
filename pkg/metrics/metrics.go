package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPErrors counts requests rejected with a domain error code.
	HTTPErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_http_errors_total",
			Help: "Total number of HTTP error responses",
		},
		[]string{"method", "path", "code"},
	)

	// HTTPLatency measures request latencies.
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPInFlight tracks requests currently being served.
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "helpdesk_http_in_flight_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	// TicketsCreated counts created tickets by priority.
	TicketsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_tickets_created_total",
			Help: "Total number of tickets created",
		},
		[]string{"priority"},
	)

	// NotificationsFannedOut counts notification rows written by type.
	NotificationsFannedOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_notifications_total",
			Help: "Total number of notifications materialized",
		},
		[]string{"type"},
	)
)
