package matcher

import (
	"time"

	"veritrail/internal/ontology"
	id "veritrail/pkg/domain"
)

// Strategy selects how sub-scores are adjusted before combination. The set
// is closed; Service.Match rejects unknown values at the call boundary.
type Strategy string

const (
	// StrategyExactSemantic favors direct embedding similarity. Semantic
	// ×1.10, temporal ×1.05.
	StrategyExactSemantic Strategy = "exact_semantic"

	// StrategyInferential leans on ontology structure when wording differs.
	// Hierarchy ×1.15, semantic ×0.95.
	StrategyInferential Strategy = "inferential"

	// StrategyCrossDomain surfaces support from adjacent domains.
	// Domain ×1.25, semantic ×0.90.
	StrategyCrossDomain Strategy = "cross_domain"

	// StrategyEmergentPattern looks for indirect structural signals.
	// Hierarchy ×1.10, evidence-type ×1.10, semantic ×0.85.
	StrategyEmergentPattern Strategy = "emergent_pattern"
)

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyExactSemantic, StrategyInferential, StrategyCrossDomain, StrategyEmergentPattern:
		return true
	}
	return false
}

// Complexity classifies how direct the evidence→standard connection is.
type Complexity string

const (
	ComplexityDirect      Complexity = "direct"
	ComplexityInferential Complexity = "inferential"
	ComplexitySynthetic   Complexity = "synthetic"
	ComplexityEmergent    Complexity = "emergent"
)

// SubScores holds the five orthogonal match signals, each in [0, 1].
type SubScores struct {
	Semantic     float64 `json:"semantic"`
	Hierarchy    float64 `json:"hierarchy"`
	Domain       float64 `json:"domain"`
	EvidenceType float64 `json:"evidence_type"`
	Temporal     float64 `json:"temporal"`
}

func (s SubScores) asSlice() []float64 {
	return []float64{s.Semantic, s.Hierarchy, s.Domain, s.EvidenceType, s.Temporal}
}

// Evidence is the structured view of one ingested document that matching
// consumes. Created by the ingestion collaborator; read-only here.
type Evidence struct {
	ID               id.EvidenceID     `json:"id"`
	Title            string            `json:"title"`
	Text             string            `json:"text"`
	Type             string            `json:"type"`
	SourceSystem     string            `json:"source_system"`
	CollectedAt      time.Time         `json:"collected_at"`
	DomainTags       []ontology.Domain `json:"domain_tags,omitempty"`
	QualityScore     float64           `json:"quality_score"`
	ContentEmbedding []float64         `json:"content_embedding,omitempty"`
	TitleEmbedding   []float64         `json:"title_embedding,omitempty"`
	MappedConcepts   []id.StandardID   `json:"mapped_concepts,omitempty"`
	InferredConcepts []id.StandardID   `json:"inferred_concepts,omitempty"`
}

// StandardMatch is one computed evidence→standard judgment. Never mutated
// after creation; re-scoring produces a new match with a new MatchID.
//
// RawScores are the sub-scores before the strategy adjustment, Adjusted after.
// Confidence is always computed from the adjusted scores; consumers that
// explain a match should read Adjusted, consumers auditing the raw signals
// should read RawScores.
type StandardMatch struct {
	MatchID         id.MatchID      `json:"match_id"`
	StandardID      id.StandardID   `json:"standard_id"`
	EvidenceID      id.EvidenceID   `json:"evidence_id"`
	RawScores       SubScores       `json:"raw_scores"`
	Adjusted        SubScores       `json:"adjusted_scores"`
	Confidence      float64         `json:"confidence"`
	Complexity      Complexity      `json:"complexity"`
	Reliability     float64         `json:"reliability"`
	MatchedConcepts []id.StandardID `json:"matched_concepts,omitempty"`
	EvidenceGaps    []string        `json:"evidence_gaps,omitempty"`
	Strategy        Strategy        `json:"strategy"`
	Timestamp       time.Time       `json:"timestamp"`
}
