package trust

import (
	"time"

	id "veritrail/pkg/domain"
)

// Level buckets an overall trust score.
type Level string

const (
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelCritical Level = "critical"
)

// levelFor maps an overall score to its trust level.
func levelFor(score float64) Level {
	switch {
	case score >= 0.8:
		return LevelHigh
	case score >= 0.6:
		return LevelMedium
	case score >= 0.4:
		return LevelLow
	default:
		return LevelCritical
	}
}

// Signal is one independently computed quality signal in [0, 1].
type Signal struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Weight      float64 `json:"weight"`
	Explanation string  `json:"explanation"`
}

// Score is the aggregated trust judgment for one evidence item,
// independent of any specific standard.
type Score struct {
	EvidenceID      id.EvidenceID `json:"evidence_id"`
	Overall         float64       `json:"overall"`
	Level           Level         `json:"level"`
	Signals         []Signal      `json:"signals"`
	Recommendations []string      `json:"recommendations,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

// Input carries everything the scorer reads about one evidence item. All
// optional fields have documented neutral fallbacks; the scorer never fails
// on missing-but-optional data.
type Input struct {
	EvidenceID    id.EvidenceID `json:"evidence_id"`
	Type          string        `json:"type"`
	SourceSystem  string        `json:"source_system"`
	UploadedAt    time.Time     `json:"uploaded_at"`
	LastModified  time.Time     `json:"last_modified,omitempty"`
	ContentLength int           `json:"content_length"`

	// MetadataRequired/Provided describe how many of the expected
	// metadata fields were supplied at ingestion. Zero required means
	// "unknown" and the completeness signal falls back to length alone.
	MetadataRequired int `json:"metadata_required"`
	MetadataProvided int `json:"metadata_provided"`

	// MappingConfidence is the concept-mapping confidence when known.
	MappingConfidence *float64 `json:"mapping_confidence,omitempty"`

	ReviewerApprovals int  `json:"reviewer_approvals"`
	AutoVerified      bool `json:"auto_verified"`
	CitationsCount    int  `json:"citations_count"`
	ConflictsCount    int  `json:"conflicts_count"`
	Duplicate         bool `json:"duplicate"`
	Superseded        bool `json:"superseded"`

	HasDigitalSignature  bool `json:"has_digital_signature"`
	HasAuditTrailRecords bool `json:"has_audit_trail_records"`
}
