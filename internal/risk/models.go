package risk

import (
	"time"

	id "veritrail/pkg/domain"
)

// Level buckets a calibrated risk score.
type Level string

const (
	LevelCritical Level = "critical"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelMinimal  Level = "minimal"
)

// levelFor maps a risk score to its level. Boundaries are inclusive on the
// upper bucket: exactly 0.7 is critical.
func levelFor(score float64) Level {
	switch {
	case score >= 0.7:
		return LevelCritical
	case score >= 0.5:
		return LevelHigh
	case score >= 0.3:
		return LevelMedium
	case score >= 0.15:
		return LevelLow
	default:
		return LevelMinimal
	}
}

// Factor is one weighted risk contributor. Contribution is always
// Weight x Normalized.
type Factor struct {
	Name         string  `json:"name"`
	Raw          float64 `json:"raw"`
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Score is the gap-risk forecast for one standard.
type Score struct {
	StandardID          id.StandardID `json:"standard_id"`
	RiskScore           float64       `json:"risk_score"`
	Level               Level         `json:"risk_level"`
	Factors             []Factor      `json:"factors"`
	PredictedIssues     []string      `json:"predicted_issues,omitempty"`
	RemediationPriority int           `json:"remediation_priority"`
	DaysToReview        int           `json:"days_to_review"`
	Confidence          float64       `json:"confidence"`
	Timestamp           time.Time     `json:"timestamp"`
}

// Input carries the observed state of one standard. Empty slices fall back
// to documented neutral defaults; they never crash the predictor.
type Input struct {
	StandardID         id.StandardID `json:"standard_id"`
	CoveragePct        float64       `json:"coverage_pct"`
	TrustScores        []float64     `json:"trust_scores,omitempty"`
	EvidenceAgeDays    []float64     `json:"evidence_age_days,omitempty"`
	OverdueTasks       int           `json:"overdue_tasks"`
	TotalTasks         int           `json:"total_tasks"`
	RecentChanges      int           `json:"recent_changes"`
	HistoricalFindings int           `json:"historical_findings"`
	DaysToReview       int           `json:"days_to_review"`

	// UpdateFrequencyDays is how often this standard's evidence is
	// typically updated. Nil when unknown.
	UpdateFrequencyDays *int `json:"update_frequency_days,omitempty"`
}
