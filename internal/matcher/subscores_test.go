package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritrail/internal/ontology"
	id "veritrail/pkg/domain"
)

func testOntology(t *testing.T) *ontology.Ontology {
	t.Helper()
	ont, err := ontology.New([]ontology.Node{
		{
			ID:     "std-root",
			Label:  "Institutional Effectiveness",
			Domain: ontology.DomainGovernance,
		},
		{
			ID:                    "std-assess",
			Label:                 "Program Assessment",
			Domain:                ontology.DomainAcademic,
			Parent:                "std-root",
			RelatedConcepts:       []id.StandardID{"std-faculty"},
			RequiredEvidenceTypes: []string{"assessment", "report"},
			AssessmentFrequency:   ontology.FrequencyAnnual,
			Embedding:             []float64{1, 0, 0},
		},
		{
			ID:        "std-faculty",
			Label:     "Faculty Qualifications",
			Domain:    ontology.DomainAcademic,
			Parent:    "std-root",
			Embedding: []float64{0, 1, 0},
		},
	})
	require.NoError(t, err)
	return ont
}

func TestSemanticScore(t *testing.T) {
	ont := testOntology(t)
	node := ont.Get("std-assess")

	t.Run("aligned embeddings score high", func(t *testing.T) {
		ev := Evidence{
			ContentEmbedding: []float64{1, 0, 0},
			TitleEmbedding:   []float64{1, 0, 0},
		}
		assert.InDelta(t, 1.0, semanticScore(ev, node), 1e-9)
	})

	t.Run("content dominates title 80/20", func(t *testing.T) {
		ev := Evidence{
			ContentEmbedding: []float64{1, 0, 0},
			TitleEmbedding:   []float64{0, 1, 0},
		}
		assert.InDelta(t, 0.8, semanticScore(ev, node), 1e-9)
	})

	t.Run("matching domain tag boosts ten percent", func(t *testing.T) {
		ev := Evidence{
			ContentEmbedding: []float64{1, 0, 0},
			TitleEmbedding:   []float64{0, 1, 0},
			DomainTags:       []ontology.Domain{ontology.DomainAcademic},
		}
		assert.InDelta(t, 0.88, semanticScore(ev, node), 1e-9)
	})

	t.Run("missing evidence embedding degrades to zero", func(t *testing.T) {
		assert.Equal(t, 0.0, semanticScore(Evidence{}, node))
	})

	t.Run("missing standard embedding degrades to zero", func(t *testing.T) {
		ev := Evidence{ContentEmbedding: []float64{1, 0, 0}}
		root := ont.Get("std-root")
		assert.Equal(t, 0.0, semanticScore(ev, root))
	})
}

func TestHierarchyScore(t *testing.T) {
	ont := testOntology(t)
	node := ont.Get("std-assess")

	t.Run("exact concept match scores full credit", func(t *testing.T) {
		ev := Evidence{MappedConcepts: []id.StandardID{"std-assess"}}
		assert.InDelta(t, 1.0, hierarchyScore(ev, node, ont), 1e-9)
	})

	t.Run("inferred concepts weigh seventy percent", func(t *testing.T) {
		ev := Evidence{InferredConcepts: []id.StandardID{"std-assess"}}
		assert.InDelta(t, 0.7, hierarchyScore(ev, node, ont), 1e-9)
	})

	t.Run("parent and related credit partial", func(t *testing.T) {
		ev := Evidence{MappedConcepts: []id.StandardID{"std-root", "std-faculty"}}
		// parent 0.8 + related 0.4 over 2 concepts
		assert.InDelta(t, 0.6, hierarchyScore(ev, node, ont), 1e-9)
	})

	t.Run("no concepts scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, hierarchyScore(Evidence{}, node, ont))
	})
}

func TestDomainScore(t *testing.T) {
	ont := testOntology(t)
	node := ont.Get("std-assess") // academic

	tests := []struct {
		name string
		tags []ontology.Domain
		want float64
	}{
		{"exact domain", []ontology.Domain{ontology.DomainAcademic}, 1.0},
		{"adjacent domain", []ontology.Domain{ontology.DomainResearch}, 0.7},
		{"unrelated domain", []ontology.Domain{ontology.DomainFinancial}, 0.2},
		{"untagged evidence is neutral", nil, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, domainScore(Evidence{DomainTags: tt.tags}, node), 1e-9)
		})
	}
}

func TestEvidenceTypeScore(t *testing.T) {
	ont := testOntology(t)
	node := ont.Get("std-assess") // requires assessment, report

	t.Run("required type boosted by quality", func(t *testing.T) {
		got := evidenceTypeScore(Evidence{Type: "assessment", QualityScore: 1.0}, node)
		assert.InDelta(t, 1.0, got, 1e-9)

		got = evidenceTypeScore(Evidence{Type: "assessment", QualityScore: 0.0}, node)
		assert.InDelta(t, 0.85, got, 1e-9)
	})

	t.Run("compatible type scores 0.7", func(t *testing.T) {
		// survey is compatible with assessment
		assert.InDelta(t, 0.7, evidenceTypeScore(Evidence{Type: "survey"}, node), 1e-9)
	})

	t.Run("unrelated type scores 0.3", func(t *testing.T) {
		assert.InDelta(t, 0.3, evidenceTypeScore(Evidence{Type: "photo"}, node), 1e-9)
	})

	t.Run("standard without requirements is neutral", func(t *testing.T) {
		root := ont.Get("std-root")
		assert.InDelta(t, 0.5, evidenceTypeScore(Evidence{Type: "anything"}, root), 1e-9)
	})
}

func TestTemporalScore(t *testing.T) {
	ont := testOntology(t)
	node := ont.Get("std-faculty") // no assessment frequency
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	age := func(days int) Evidence {
		return Evidence{CollectedAt: now.AddDate(0, 0, -days)}
	}

	tests := []struct {
		days int
		want float64
	}{
		{10, 1.0},
		{60, 0.9},
		{150, 0.8},
		{300, 0.6},
		{600, 0.4},
		{1000, 0.3},
		{2000, 0.2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, temporalScore(age(tt.days), node, now), 1e-9, "age %d days", tt.days)
	}

	t.Run("annual cadence discounts lapsed evidence", func(t *testing.T) {
		annual := ont.Get("std-assess")
		got := temporalScore(age(600), annual, now)
		assert.InDelta(t, 0.4*0.7, got, 1e-9)
	})

	t.Run("unknown collection date is neutral", func(t *testing.T) {
		assert.InDelta(t, 0.5, temporalScore(Evidence{}, node, now), 1e-9)
	})
}

func TestApplyStrategy_PreservesRawAndClamps(t *testing.T) {
	raw := SubScores{Semantic: 0.95, Hierarchy: 0.9, Domain: 0.9, EvidenceType: 0.5, Temporal: 1.0}

	adjusted := applyStrategy(StrategyExactSemantic, raw)

	assert.Equal(t, 0.95, raw.Semantic, "raw scores must not be mutated")
	assert.Equal(t, 1.0, adjusted.Semantic, "0.95 x 1.10 clamps to 1.0")
	assert.Equal(t, 1.0, adjusted.Temporal)
	assert.Equal(t, raw.Hierarchy, adjusted.Hierarchy, "untouched sub-scores pass through")
}

func TestClassifyComplexity(t *testing.T) {
	tests := []struct {
		name   string
		scores SubScores
		want   Complexity
	}{
		{
			"all strong is direct",
			SubScores{0.85, 0.9, 0.8, 0.8, 0.95},
			ComplexityDirect,
		},
		{
			"strong semantic and hierarchy with weak domain is inferential",
			SubScores{0.85, 0.7, 0.5, 0.9, 0.9},
			ComplexityInferential,
		},
		{
			"weak domain decent semantic without hierarchy is synthetic",
			SubScores{0.65, 0.2, 0.3, 0.9, 0.9},
			ComplexitySynthetic,
		},
		{
			"everything else is emergent",
			SubScores{0.4, 0.4, 0.9, 0.4, 0.4},
			ComplexityEmergent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyComplexity(tt.scores))
		})
	}
}

func TestReliability(t *testing.T) {
	t.Run("identical scores are fully reliable", func(t *testing.T) {
		rel := reliability(SubScores{0.6, 0.6, 0.6, 0.6, 0.6})
		assert.InDelta(t, 1.0, rel, 1e-9)
	})

	t.Run("high mean gets a boost but stays clamped", func(t *testing.T) {
		rel := reliability(SubScores{0.9, 0.9, 0.9, 0.9, 0.9})
		assert.Equal(t, 1.0, rel)
	})

	t.Run("divergent scores reduce reliability", func(t *testing.T) {
		rel := reliability(SubScores{1.0, 0.0, 1.0, 0.0, 1.0})
		assert.Less(t, rel, 0.1)
	})
}
