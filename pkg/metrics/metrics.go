// Package metrics exposes the prometheus collectors for booking admission and capacity health.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics groups the reservation engine collectors
type BookingMetrics struct {
	bookings           *prometheus.CounterVec
	cancellations      *prometheus.CounterVec
	conflictRetries    prometheus.Counter
	capacityViolations prometheus.Counter
	drift              *prometheus.CounterVec
	storeUnavailable   *prometheus.CounterVec
	latency            *prometheus.HistogramVec
}

// HTTPMetrics tracks handler traffic
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	bookingOnce sync.Once
	bookingReg  *BookingMetrics

	httpOnce sync.Once
	httpReg  *HTTPMetrics
)

// Bookings returns the lazily registered booking collectors
func Bookings() *BookingMetrics {
	bookingOnce.Do(func() {
		bookingReg = &BookingMetrics{
			bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "venuely",
				Subsystem: "bookings",
				Name:      "admissions_total",
				Help:      "Booking attempts segmented by outcome.",
			}, []string{"outcome"}),
			cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "venuely",
				Subsystem: "bookings",
				Name:      "cancellations_total",
				Help:      "Committed cancellations segmented by refund eligibility.",
			}, []string{"refunded"}),
			conflictRetries: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "venuely",
				Subsystem: "bookings",
				Name:      "conflict_retries_total",
				Help:      "Transactions re-run after losing a venue version compare-and-swap.",
			}),
			capacityViolations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "venuely",
				Subsystem: "capacity",
				Name:      "violations_total",
				Help:      "Counter updates refused because they would leave [0, capacity].",
			}),
			drift: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "venuely",
				Subsystem: "capacity",
				Name:      "drift_total",
				Help:      "Venues whose booked count disagreed with confirmed reservations.",
			}, []string{"repaired"}),
			storeUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "venuely",
				Subsystem: "store",
				Name:      "unavailable_total",
				Help:      "Store calls that timed out or failed to connect.",
			}, []string{"operation"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "venuely",
				Subsystem: "bookings",
				Name:      "operation_duration_seconds",
				Help:      "Latency of book and cancel operations including lock wait.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
		}
		prometheus.MustRegister(
			bookingReg.bookings,
			bookingReg.cancellations,
			bookingReg.conflictRetries,
			bookingReg.capacityViolations,
			bookingReg.drift,
			bookingReg.storeUnavailable,
			bookingReg.latency,
		)
	})
	return bookingReg
}

// Admission records one book call. outcome is a stable label such as "admitted" or "capacity_exceeded".
func (m *BookingMetrics) Admission(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.bookings.WithLabelValues(outcome).Inc()
	m.latency.WithLabelValues("book").Observe(duration.Seconds())
}

// Cancellation records one committed cancel
func (m *BookingMetrics) Cancellation(refunded bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(strconv.FormatBool(refunded)).Inc()
	m.latency.WithLabelValues("cancel").Observe(duration.Seconds())
}

func (m *BookingMetrics) ConflictRetry() {
	if m == nil {
		return
	}
	m.conflictRetries.Inc()
}

func (m *BookingMetrics) CapacityViolation() {
	if m == nil {
		return
	}
	m.capacityViolations.Inc()
}

func (m *BookingMetrics) Drift(repaired bool) {
	if m == nil {
		return
	}
	m.drift.WithLabelValues(strconv.FormatBool(repaired)).Inc()
}

func (m *BookingMetrics) StoreUnavailable(operation string) {
	if m == nil {
		return
	}
	m.storeUnavailable.WithLabelValues(operation).Inc()
}

// HTTP returns the lazily registered HTTP collectors
func HTTP() *HTTPMetrics {
	httpOnce.Do(func() {
		httpReg = &HTTPMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "venuely",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests segmented by route and status code.",
			}, []string{"method", "route", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "venuely",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for HTTP handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "route"}),
		}
		prometheus.MustRegister(httpReg.requests, httpReg.latency)
	})
	return httpReg
}

// Observe records one handled request. route should be the registered pattern, not the raw path.
func (m *HTTPMetrics) Observe(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}
