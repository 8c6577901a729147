// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "booking"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	schedulesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_created_total",
			Help:      "Schedules successfully created.",
		},
	)

	bookingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the time range was taken, by scope kind.",
		},
		[]string{"scope"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_transitions_total",
			Help:      "Schedule status changes.",
		},
		[]string{"from", "to"},
	)

	paymentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_events_total",
			Help:      "Payment events processed, by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by route.",
		},
		[]string{"route"},
	)
)

// Register registers the collectors with the default registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			schedulesCreated,
			bookingConflicts,
			statusTransitions,
			paymentEvents,
			rateLimited,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency under the matched route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func IncScheduleCreated() {
	schedulesCreated.Inc()
}

func IncConflict(scope string) {
	bookingConflicts.WithLabelValues(scope).Inc()
}

// ConflictCounter returns the conflict counter for scope, for reading in tests.
func ConflictCounter(scope string) prometheus.Counter {
	return bookingConflicts.WithLabelValues(scope)
}

func IncTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

// IncPaymentEvent counts a payment event. Source is "webhook" or "amqp".
func IncPaymentEvent(source, outcome string) {
	paymentEvents.WithLabelValues(source, outcome).Inc()
}

func IncRateLimited(route string) {
	rateLimited.WithLabelValues(route).Inc()
}
