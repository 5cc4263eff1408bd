package trust

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veritrail/pkg/domain-errors"
)

var fixedNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func newScorer() *Scorer {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func TestScore_RequiresEvidenceID(t *testing.T) {
	_, err := newScorer().Score(context.Background(), Input{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestScore_HighTrustEvidence(t *testing.T) {
	conf := 0.9
	in := Input{
		EvidenceID:           "ev-good",
		Type:                 "report",
		SourceSystem:         "external_audit",
		UploadedAt:           fixedNow.AddDate(0, -2, 0),
		ContentLength:        4000,
		MetadataRequired:     5,
		MetadataProvided:     5,
		MappingConfidence:    &conf,
		CitationsCount:       6,
		ReviewerApprovals:    2,
		HasDigitalSignature:  true,
		HasAuditTrailRecords: true,
	}

	score, err := newScorer().Score(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, LevelHigh, score.Level)
	assert.GreaterOrEqual(t, score.Overall, 0.8)
	assert.LessOrEqual(t, score.Overall, 1.0)
	assert.Len(t, score.Signals, 6)
	assert.Empty(t, score.Recommendations)
	assert.Equal(t, fixedNow, score.Timestamp)
}

func TestScore_StaleManualPolicyDocument(t *testing.T) {
	// Five-year-old manually entered policy, no reviewer, no citations.
	in := Input{
		EvidenceID:    "ev-stale",
		Type:          "policy",
		SourceSystem:  "manual_entry",
		UploadedAt:    fixedNow.AddDate(-5, 0, 0),
		ContentLength: 400,
	}

	score, err := newScorer().Score(context.Background(), in)
	require.NoError(t, err)

	assert.Contains(t, []Level{LevelLow, LevelCritical}, score.Level)
	assert.Contains(t, score.Recommendations,
		"update stale evidence; the document is past its staleness threshold")
}

func TestScore_SignalValues(t *testing.T) {
	t.Run("provenance caps at 1.0", func(t *testing.T) {
		sig := provenanceSignal(Input{
			SourceSystem:         "external_audit",
			HasDigitalSignature:  true,
			HasAuditTrailRecords: true,
		})
		assert.Equal(t, 1.0, sig.Value)
	})

	t.Run("unknown source system gets the default base", func(t *testing.T) {
		sig := provenanceSignal(Input{SourceSystem: "fax"})
		assert.Equal(t, defaultProvenanceScore, sig.Value)
	})

	t.Run("freshness uses per-type thresholds", func(t *testing.T) {
		// A 1-year-old syllabus (6 month threshold) is well past stale.
		sig := freshnessSignal(Input{Type: "syllabus", UploadedAt: fixedNow.AddDate(-1, 0, 0)}, fixedNow)
		assert.LessOrEqual(t, sig.Value, 0.3)

		// A 1-year-old policy (2 year threshold) is still fresh enough.
		sig = freshnessSignal(Input{Type: "policy", UploadedAt: fixedNow.AddDate(-1, 0, 0)}, fixedNow)
		assert.GreaterOrEqual(t, sig.Value, 0.8)
	})

	t.Run("freshness prefers last modified over upload date", func(t *testing.T) {
		in := Input{
			Type:         "report",
			UploadedAt:   fixedNow.AddDate(-3, 0, 0),
			LastModified: fixedNow.AddDate(0, -1, 0),
		}
		sig := freshnessSignal(in, fixedNow)
		assert.Equal(t, 1.0, sig.Value)
	})

	t.Run("completeness averages length and metadata ratios", func(t *testing.T) {
		in := Input{
			Type:             "minutes",
			ContentLength:    300, // exactly the minimum
			MetadataRequired: 4,
			MetadataProvided: 2,
		}
		sig := completenessSignal(in)
		assert.InDelta(t, 0.75, sig.Value, 1e-9)
	})

	t.Run("relevance is neutral without mapping confidence", func(t *testing.T) {
		sig := relevanceSignal(Input{})
		assert.Equal(t, 0.5, sig.Value)
	})

	t.Run("citations boost relevance in tiers", func(t *testing.T) {
		conf := 0.5
		assert.InDelta(t, 0.55, relevanceSignal(Input{MappingConfidence: &conf, CitationsCount: 1}).Value, 1e-9)
		assert.InDelta(t, 0.60, relevanceSignal(Input{MappingConfidence: &conf, CitationsCount: 2}).Value, 1e-9)
		assert.InDelta(t, 0.70, relevanceSignal(Input{MappingConfidence: &conf, CitationsCount: 5}).Value, 1e-9)
	})

	t.Run("alignment conflict penalty is capped", func(t *testing.T) {
		sig := alignmentSignal(Input{ConflictsCount: 20})
		assert.InDelta(t, 0.5, sig.Value, 1e-9)
	})

	t.Run("superseded duplicate evidence bottoms out", func(t *testing.T) {
		sig := alignmentSignal(Input{ConflictsCount: 5, Duplicate: true, Superseded: true})
		assert.Equal(t, 0.0, sig.Value)
	})

	t.Run("verification ladder", func(t *testing.T) {
		assert.Equal(t, 1.0, verificationSignal(Input{ReviewerApprovals: 2}).Value)
		assert.Equal(t, 1.0, verificationSignal(Input{ReviewerApprovals: 1}).Value)
		assert.Equal(t, 0.7, verificationSignal(Input{AutoVerified: true}).Value)
		assert.Equal(t, 0.3, verificationSignal(Input{}).Value)
	})
}

func TestScore_RecommendationsCappedAndPrioritized(t *testing.T) {
	// Everything is bad: expect exactly three recommendations, led by the
	// heaviest flagged signal (freshness at 0.25).
	in := Input{
		EvidenceID:     "ev-bad",
		Type:           "policy",
		SourceSystem:   "manual_entry",
		UploadedAt:     fixedNow.AddDate(-6, 0, 0),
		ContentLength:  10,
		ConflictsCount: 4,
		Superseded:     true,
	}

	score, err := newScorer().Score(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, score.Recommendations, 3)
	assert.Equal(t, "update stale evidence; the document is past its staleness threshold",
		score.Recommendations[0])
}

func TestLevelBoundaries(t *testing.T) {
	assert.Equal(t, LevelHigh, levelFor(0.8))
	assert.Equal(t, LevelMedium, levelFor(0.799999))
	assert.Equal(t, LevelMedium, levelFor(0.6))
	assert.Equal(t, LevelLow, levelFor(0.599999))
	assert.Equal(t, LevelLow, levelFor(0.4))
	assert.Equal(t, LevelCritical, levelFor(0.399999))
}
