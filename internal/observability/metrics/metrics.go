package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters for availability queries, bookings,
// calendar mirroring and reminder dispatch.
type SchedulingMetrics struct {
	slotQueries      *prometheus.CounterVec
	slotsReturned    prometheus.Histogram
	bookings         *prometheus.CounterVec
	calendarFailures *prometheus.CounterVec
	reminders        *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terapia",
			Subsystem: "availability",
			Name:      "slot_queries_total",
			Help:      "Total day-availability queries",
		}, []string{"status"}),
		slotsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "terapia",
			Subsystem: "availability",
			Name:      "slots_returned",
			Help:      "Slots returned per day-availability query",
			Buckets:   []float64{0, 1, 2, 5, 10, 15, 20, 30},
		}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terapia",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		calendarFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terapia",
			Subsystem: "calendar",
			Name:      "failures_total",
			Help:      "External calendar failures by operation",
		}, []string{"operation"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terapia",
			Subsystem: "reminders",
			Name:      "dispatch_total",
			Help:      "Reminder dispatch attempts by kind and status",
		}, []string{"kind", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotQueries, m.slotsReturned, m.bookings, m.calendarFailures, m.reminders)
	return m
}

func (m *SchedulingMetrics) ObserveSlotQuery(status string, slots int) {
	if m == nil {
		return
	}
	m.slotQueries.WithLabelValues(status).Inc()
	m.slotsReturned.Observe(float64(slots))
}

func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveCalendarFailure(operation string) {
	if m == nil {
		return
	}
	m.calendarFailures.WithLabelValues(operation).Inc()
}

func (m *SchedulingMetrics) ObserveReminder(kind, status string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(kind, status).Inc()
}
