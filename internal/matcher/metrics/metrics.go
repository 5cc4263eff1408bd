package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the matcher module.
type Metrics struct {
	// Matches produced by strategy and complexity
	MatchesProduced *prometheus.CounterVec

	// Cache lookups by result ("hit", "miss")
	CacheLookups *prometheus.CounterVec

	// Standards skipped because they were absent from the ontology
	StandardsSkipped prometheus.Counter

	// Full match computation latency
	MatchLatency prometheus.Histogram
}

// New creates a Metrics instance with all matcher metrics registered.
func New() *Metrics {
	return &Metrics{
		MatchesProduced: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritrail_matcher_matches_total",
			Help: "Total standard matches produced by strategy and complexity",
		}, []string{"strategy", "complexity"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritrail_matcher_cache_lookups_total",
			Help: "Match cache lookups by result",
		}, []string{"result"}),

		StandardsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritrail_matcher_standards_skipped_total",
			Help: "Standards skipped because they were not present in the ontology",
		}),

		MatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritrail_matcher_match_duration_seconds",
			Help:    "Duration of a full match computation over one standard set",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// IncMatch records one produced match.
func (m *Metrics) IncMatch(strategy, complexity string) {
	if m != nil {
		m.MatchesProduced.WithLabelValues(strategy, complexity).Inc()
	}
}

// IncCacheLookup records a cache lookup outcome.
func (m *Metrics) IncCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncStandardSkipped records a standard missing from the ontology.
func (m *Metrics) IncStandardSkipped() {
	if m != nil {
		m.StandardsSkipped.Inc()
	}
}

// ObserveMatchLatency records the duration of one match computation.
func (m *Metrics) ObserveMatchLatency(d time.Duration) {
	if m != nil {
		m.MatchLatency.Observe(d.Seconds())
	}
}
