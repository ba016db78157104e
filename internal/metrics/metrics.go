package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	slotGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "slot_generations_total",
			Help:      "Availability computations by provider source.",
		},
		[]string{"source"},
	)

	calRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "cal_requests_total",
			Help:      "Requests to the scheduling provider by operation and status code.",
		},
		[]string{"operation", "status"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "bookings_created_total",
			Help:      "Bookings accepted and forwarded to the provider.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, slotGenerations, calRequests, bookingsCreated)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncSlotGeneration counts one availability computation for a source
// ("local" or "cal").
func IncSlotGeneration(source string) {
	slotGenerations.WithLabelValues(source).Inc()
}

// IncCalRequest counts one provider round trip.
func IncCalRequest(operation string, statusCode int) {
	calRequests.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
}

// IncBookingCreated counts one accepted booking.
func IncBookingCreated() {
	bookingsCreated.Inc()
}
