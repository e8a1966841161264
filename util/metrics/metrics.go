package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carrental",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		},
		[]string{"route", "status"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "carrental",
			Name:      "bookings_created_total",
			Help:      "Successfully created bookings.",
		},
	)

	paymentNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carrental",
			Name:      "payment_notifications_total",
			Help:      "Gateway webhook notifications by transaction status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, paymentNotifications)
	})
}

func IncHTTP(route, status string) {
	httpRequests.WithLabelValues(route, status).Inc()
}

func IncBookingCreated() { bookingsCreated.Inc() }

func IncPaymentNotification(status string) {
	paymentNotifications.WithLabelValues(status).Inc()
}
