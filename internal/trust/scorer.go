// Package trust scores one evidence item on six weighted quality signals:
// provenance, freshness, completeness, relevance, alignment, and reviewer
// verification. The result is standard-independent; the gap-risk predictor
// consumes these scores in aggregate.
package trust

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	dErrors "veritrail/pkg/domain-errors"
)

const maxRecommendations = 3

// Scorer computes evidence trust scores. Stateless and safe for concurrent
// use; the clock is injectable for deterministic tests.
type Scorer struct {
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Option configures the Scorer.
type Option func(*Scorer)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) { s.logger = logger }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// New creates a trust scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		tracer: otel.Tracer("veritrail/trust"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the trust score for one evidence item. The overall value is
// the weight-normalized mean of the six signals. Missing optional inputs
// degrade individual signals to their neutral values; only a missing
// evidence id is an error.
func (s *Scorer) Score(ctx context.Context, in Input) (Score, error) {
	_, span := s.tracer.Start(ctx, "trust.Score", trace.WithAttributes(
		attribute.String("evidence_id", string(in.EvidenceID)),
	))
	defer span.End()

	if in.EvidenceID.IsEmpty() {
		return Score{}, dErrors.New(dErrors.CodeInvalidInput, "evidence id is required")
	}

	now := s.now()
	signals := []Signal{
		provenanceSignal(in),
		freshnessSignal(in, now),
		completenessSignal(in),
		relevanceSignal(in),
		alignmentSignal(in),
		verificationSignal(in),
	}

	var weightedSum, weightTotal float64
	for _, sig := range signals {
		weightedSum += sig.Weight * sig.Value
		weightTotal += sig.Weight
	}
	overall := weightedSum / weightTotal

	score := Score{
		EvidenceID:      in.EvidenceID,
		Overall:         overall,
		Level:           levelFor(overall),
		Signals:         signals,
		Recommendations: recommendations(signals),
		Timestamp:       now,
	}

	if s.logger != nil && score.Level == LevelCritical {
		s.logger.WarnContext(ctx, "evidence trust critically low",
			"evidence_id", in.EvidenceID,
			"overall", overall,
		)
	}

	return score, nil
}

// recommendations emits at most three per-signal improvement hints,
// prioritized by signal weight so the advice worth the most comes first.
func recommendations(signals []Signal) []string {
	flagged := make([]Signal, 0, len(signals))
	for _, sig := range signals {
		if floor, ok := recommendationFloors[sig.Name]; ok && sig.Value < floor {
			flagged = append(flagged, sig)
		}
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].Weight > flagged[j].Weight
	})
	if len(flagged) > maxRecommendations {
		flagged = flagged[:maxRecommendations]
	}

	out := make([]string, 0, len(flagged))
	for _, sig := range flagged {
		out = append(out, recommendationMessages[sig.Name])
	}
	return out
}
