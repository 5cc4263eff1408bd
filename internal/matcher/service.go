// Package matcher computes how strongly one evidence item supports each
// candidate standard. Five orthogonal sub-scores are combined through
// configurable normalized weights into a confidence score with a
// reliability estimate and a match-complexity classification.
package matcher

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"veritrail/internal/matcher/metrics"
	"veritrail/internal/ontology"
	id "veritrail/pkg/domain"
	dErrors "veritrail/pkg/domain-errors"
)

// DefaultMinConfidence is the retention threshold for matches.
const DefaultMinConfidence = 0.7

const batchConcurrency = 4

// Service matches evidence against standards from the ontology. Safe for
// concurrent use: the ontology is read-only, results are new independently
// owned values, and the cache handles its own synchronization.
type Service struct {
	ont           *ontology.Ontology
	weights       Weights
	minConfidence float64
	cache         Cache
	group         singleflight.Group
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	now           func() time.Time
	newMatchID    func() id.MatchID
}

// Option configures the Service.
type Option func(*Service)

// WithWeights overrides the default sub-score weights. Weights are
// normalized at construction; invalid configurations fail fast.
func WithWeights(w Weights) Option {
	return func(s *Service) { s.weights = w }
}

// WithMinConfidence overrides the retention threshold.
func WithMinConfidence(min float64) Option {
	return func(s *Service) { s.minConfidence = min }
}

// WithCache sets the result cache. Without one, every call recomputes.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock injects the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMatchIDGenerator injects the match ID source, for deterministic tests.
func WithMatchIDGenerator(gen func() id.MatchID) Option {
	return func(s *Service) { s.newMatchID = gen }
}

// New creates a matcher service over the given ontology.
func New(ont *ontology.Ontology, opts ...Option) (*Service, error) {
	if ont == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ontology is required")
	}

	s := &Service{
		ont:           ont,
		weights:       DefaultWeights(),
		minConfidence: DefaultMinConfidence,
		tracer:        otel.Tracer("veritrail/matcher"),
		now:           time.Now,
		newMatchID:    id.NewMatchID,
	}
	for _, opt := range opts {
		opt(s)
	}

	normalized, err := s.weights.Normalize()
	if err != nil {
		return nil, err
	}
	s.weights = normalized

	if s.minConfidence < 0 || s.minConfidence > 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "min confidence must be in [0,1]")
	}

	return s, nil
}

// Match scores one evidence item against the candidate standards. Results
// are sorted descending by confidence and filtered to the retention
// threshold. Standards absent from the ontology are skipped silently.
//
// Identical inputs hit the cache and return the same immutable snapshot;
// concurrent identical requests collapse into a single computation.
func (s *Service) Match(ctx context.Context, ev Evidence, standardIDs []id.StandardID, strategy Strategy) ([]StandardMatch, error) {
	ctx, span := s.tracer.Start(ctx, "matcher.Match", trace.WithAttributes(
		attribute.String("evidence_id", string(ev.ID)),
		attribute.Int("standards", len(standardIDs)),
		attribute.String("strategy", string(strategy)),
	))
	defer span.End()

	if ev.ID.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "evidence id is required")
	}
	if !strategy.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown matching strategy %q", strategy)
	}

	key := cacheKey(ev.ID, standardIDs, strategy)
	if s.cache != nil {
		if matches, ok := s.cache.Get(ctx, key); ok {
			s.metrics.IncCacheLookup("hit")
			return matches, nil
		}
		s.metrics.IncCacheLookup("miss")
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		matches := s.compute(ctx, ev, standardIDs, strategy)
		if s.cache != nil {
			s.cache.Set(ctx, key, matches)
		}
		return matches, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]StandardMatch), nil
}

// MatchBatch matches several evidence items against the same standard set in
// parallel. Results are keyed by evidence id.
func (s *Service) MatchBatch(ctx context.Context, evs []Evidence, standardIDs []id.StandardID, strategy Strategy) (map[id.EvidenceID][]StandardMatch, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	var mu sync.Mutex
	out := make(map[id.EvidenceID][]StandardMatch, len(evs))

	for _, ev := range evs {
		g.Go(func() error {
			matches, err := s.Match(ctx, ev, standardIDs, strategy)
			if err != nil {
				return err
			}
			mu.Lock()
			out[ev.ID] = matches
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) compute(ctx context.Context, ev Evidence, standardIDs []id.StandardID, strategy Strategy) []StandardMatch {
	start := time.Now()
	now := s.now()

	matches := make([]StandardMatch, 0, len(standardIDs))
	for _, stdID := range standardIDs {
		node := s.ont.Get(stdID)
		if node == nil {
			s.metrics.IncStandardSkipped()
			if s.logger != nil {
				s.logger.DebugContext(ctx, "standard not in ontology, skipping",
					"standard_id", stdID,
					"evidence_id", ev.ID,
				)
			}
			continue
		}

		raw := SubScores{
			Semantic:     semanticScore(ev, node),
			Hierarchy:    hierarchyScore(ev, node, s.ont),
			Domain:       domainScore(ev, node),
			EvidenceType: evidenceTypeScore(ev, node),
			Temporal:     temporalScore(ev, node, now),
		}
		adjusted := applyStrategy(strategy, raw)

		confidence := s.weights.combine(adjusted)
		if confidence < s.minConfidence {
			continue
		}

		complexity := classifyComplexity(adjusted)
		match := StandardMatch{
			MatchID:         s.newMatchID(),
			StandardID:      stdID,
			EvidenceID:      ev.ID,
			RawScores:       raw,
			Adjusted:        adjusted,
			Confidence:      confidence,
			Complexity:      complexity,
			Reliability:     reliability(adjusted),
			MatchedConcepts: s.matchedConcepts(ev, node),
			EvidenceGaps:    evidenceGaps(ev, node),
			Strategy:        strategy,
			Timestamp:       now,
		}
		matches = append(matches, match)
		s.metrics.IncMatch(string(strategy), string(complexity))
	}

	// Descending by confidence, standard id as a deterministic tiebreak.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].StandardID < matches[j].StandardID
	})

	s.metrics.ObserveMatchLatency(time.Since(start))
	return matches
}

// matchedConcepts lists the evidence concepts that connect to the standard's
// ontology neighborhood.
func (s *Service) matchedConcepts(ev Evidence, node *ontology.Node) []id.StandardID {
	neighborhood := map[id.StandardID]bool{node.ID: true}
	if !node.Parent.IsEmpty() {
		neighborhood[node.Parent] = true
	}
	for _, a := range s.ont.Ancestors(node.ID) {
		neighborhood[a] = true
	}
	for _, r := range node.RelatedConcepts {
		neighborhood[r] = true
	}

	var out []id.StandardID
	seen := make(map[id.StandardID]bool)
	for _, c := range append(append([]id.StandardID{}, ev.MappedConcepts...), ev.InferredConcepts...) {
		if neighborhood[c] && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// evidenceGaps lists required evidence types this document does not satisfy,
// either exactly or via the compatibility table.
func evidenceGaps(ev Evidence, node *ontology.Node) []string {
	var gaps []string
	for _, required := range node.RequiredEvidenceTypes {
		if ev.Type == required {
			continue
		}
		compatible := false
		for _, compat := range evidenceTypeCompatibility[required] {
			if ev.Type == compat {
				compatible = true
				break
			}
		}
		if !compatible {
			gaps = append(gaps, required)
		}
	}
	return gaps
}
