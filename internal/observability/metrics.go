package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus instruments.
type Metrics struct {
	requests      *prometheus.CounterVec
	errors        *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	ticketsOpened prometheus.Counter
	ticketsClosed prometheus.Counter
	tasksRolled   prometheus.Counter
}

// NewMetrics registers instruments on the given registerer. Pass a
// fresh prometheus.NewRegistry() in tests to avoid duplicate
// registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by path, method and status",
		}, []string{"path", "method", "status"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Request failures by path, method and error code",
		}, []string{"path", "method", "code"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "helpdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request durations by path and method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		ticketsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "tickets",
			Name:      "opened_total",
			Help:      "Tickets created",
		}),
		ticketsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "tickets",
			Name:      "closed_total",
			Help:      "Tickets transitioned to CLOSED",
		}),
		tasksRolled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "tasks",
			Name:      "recurrences_rolled_total",
			Help:      "Recurring tasks rolled into a next occurrence",
		}),
	}
}

// RecordRequest observes a completed request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError observes a request that ended in a domain error.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// TicketOpened counts a created ticket.
func (m *Metrics) TicketOpened() {
	if m != nil {
		m.ticketsOpened.Inc()
	}
}

// TicketClosed counts a close transition.
func (m *Metrics) TicketClosed() {
	if m != nil {
		m.ticketsClosed.Inc()
	}
}

// TaskRolled counts a recurring task rolled by the scheduler.
func (m *Metrics) TaskRolled() {
	if m != nil {
		m.tasksRolled.Inc()
	}
}
