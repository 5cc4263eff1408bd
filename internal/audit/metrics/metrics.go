package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit trail.
type Metrics struct {
	// Events logged by category ("scoring", "traceability", "session")
	EventsLogged *prometheus.CounterVec

	// Append failures by kind ("event", "link")
	AppendFailures *prometheus.CounterVec

	// Hash mismatches found during integrity verification
	IntegrityViolations prometheus.Counter

	// Events dropped by the stream publisher because its buffer was full
	StreamDropped prometheus.Counter
}

// New creates a Metrics instance with all audit metrics registered.
func New() *Metrics {
	return &Metrics{
		EventsLogged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritrail_audit_events_total",
			Help: "Audit events logged by category",
		}, []string{"category"}),

		AppendFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritrail_audit_append_failures_total",
			Help: "Audit store append failures by record kind",
		}, []string{"kind"}),

		IntegrityViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritrail_audit_integrity_violations_total",
			Help: "Stored events whose recomputed hash did not match",
		}),

		StreamDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritrail_audit_stream_dropped_total",
			Help: "Audit events dropped by the stream publisher on buffer overflow",
		}),
	}
}

// IncEventLogged records one logged event.
func (m *Metrics) IncEventLogged(category string) {
	if m != nil {
		m.EventsLogged.WithLabelValues(category).Inc()
	}
}

// IncAppendFailure records one failed store append.
func (m *Metrics) IncAppendFailure(kind string) {
	if m != nil {
		m.AppendFailures.WithLabelValues(kind).Inc()
	}
}

// IncIntegrityViolation records one hash mismatch.
func (m *Metrics) IncIntegrityViolation() {
	if m != nil {
		m.IntegrityViolations.Inc()
	}
}

// IncStreamDropped records one dropped stream event.
func (m *Metrics) IncStreamDropped() {
	if m != nil {
		m.StreamDropped.Inc()
	}
}
