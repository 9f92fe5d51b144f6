package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics — счётчики и гистограммы движка записи.
type BookingMetrics struct {
	attemptsTotal     *prometheus.CounterVec
	retriesTotal      prometheus.Counter
	cancellations     *prometheus.CounterVec
	transitionsTotal  *prometheus.CounterVec
	allocationLatency *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetclinic",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by allocation path and outcome",
		}, []string{"path", "outcome"}),
		retriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vetclinic",
			Subsystem: "booking",
			Name:      "allocation_retries_total",
			Help:      "Multi-slot allocation retries after a unique violation",
		}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetclinic",
			Subsystem: "booking",
			Name:      "cancellations_total",
			Help:      "Booking cancellations by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetclinic",
			Subsystem: "booking",
			Name:      "status_transitions_total",
			Help:      "Booking status transitions by target status and outcome",
		}, []string{"status", "outcome"}),
		allocationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vetclinic",
			Subsystem: "booking",
			Name:      "allocation_duration_seconds",
			Help:      "Latency of slot allocation including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attemptsTotal, m.retriesTotal, m.cancellations, m.transitionsTotal, m.allocationLatency)
	return m
}

func (m *BookingMetrics) ObserveAttempt(path, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(path, outcome).Inc()
	m.allocationLatency.WithLabelValues(path).Observe(took.Seconds())
}

func (m *BookingMetrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.retriesTotal.Inc()
}

func (m *BookingMetrics) ObserveCancellation(outcome string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveTransition(status, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(status, outcome).Inc()
}
