package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the service's collectors; it is what /metrics exposes.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stall_marketplace",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stall_marketplace",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stall_marketplace",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	publishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stall_marketplace",
			Subsystem: "messaging",
			Name:      "publish_failures_total",
			Help:      "Domain events that could not be published.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		bookings,
		publishFailures,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
}

func RecordHTTPRequest(method, path string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordBooking counts one booking attempt, e.g. "created", "sold_out", "duplicate".
func RecordBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func RecordPublishFailure() {
	publishFailures.Inc()
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
