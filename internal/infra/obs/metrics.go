package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the reservation counters exposed on /metrics.
type Metrics struct {
	ReservationsConfirmed prometheus.Counter
	BookingConflicts      prometheus.Counter
	ReservationsCancelled prometheus.Counter
	ListingsCreated       prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		ReservationsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "lendr",
			Name:      "reservations_confirmed_total",
			Help:      "Count of successfully committed reservations and owner blocks.",
		}),
		BookingConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "lendr",
			Name:      "booking_conflicts_total",
			Help:      "Count of booking attempts rejected for overlapping dates.",
		}),
		ReservationsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "lendr",
			Name:      "reservations_cancelled_total",
			Help:      "Count of reservations released by cancellation.",
		}),
		ListingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "lendr",
			Name:      "listings_created_total",
			Help:      "Count of listings published.",
		}),
	}
}
