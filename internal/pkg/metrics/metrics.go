// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caster_store_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caster_store_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "path"},
	)

	OrdersPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "caster_store_orders_placed_total",
			Help: "Orders committed by checkout",
		},
	)

	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caster_store_orders_rejected_total",
			Help: "Checkout attempts rolled back, by reason",
		},
		[]string{"reason"},
	)

	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caster_store_order_status_transitions_total",
			Help: "Applied order status transitions",
		},
		[]string{"from", "to"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		OrdersPlaced,
		OrdersRejected,
		OrderTransitions,
	)
}
