package trust

import (
	"fmt"
	"time"

	"veritrail/pkg/vecmath"
)

// Signal weights. Normalized on combination, so they read as relative
// importance rather than exact shares.
const (
	weightProvenance   = 0.20
	weightFreshness    = 0.25
	weightCompleteness = 0.15
	weightRelevance    = 0.20
	weightAlignment    = 0.10
	weightVerification = 0.10
)

// provenanceBaseScores ranks source systems by how much their chain of
// custody is worth on its own.
var provenanceBaseScores = map[string]float64{
	"external_audit":   1.0,
	"erp_export":       0.9,
	"lms_export":       0.85,
	"document_system":  0.8,
	"email_attachment": 0.6,
	"manual_entry":     0.5,
}

const defaultProvenanceScore = 0.5

// stalenessThresholds is the per-type age at which evidence stops being
// fresh.
var stalenessThresholds = map[string]time.Duration{
	"policy":       2 * 365 * 24 * time.Hour,
	"procedure":    2 * 365 * 24 * time.Hour,
	"syllabus":     182 * 24 * time.Hour,
	"assessment":   365 * 24 * time.Hour,
	"report":       365 * 24 * time.Hour,
	"audit_report": 3 * 365 * 24 * time.Hour,
	"minutes":      365 * 24 * time.Hour,
}

const defaultStalenessThreshold = 365 * 24 * time.Hour

// minContentLengths is the per-type floor below which a document is
// considered incomplete.
var minContentLengths = map[string]int{
	"policy":       1500,
	"procedure":    1000,
	"syllabus":     800,
	"assessment":   500,
	"report":       2000,
	"audit_report": 3000,
	"minutes":      300,
}

const defaultMinContentLength = 500

func provenanceSignal(in Input) Signal {
	base, ok := provenanceBaseScores[in.SourceSystem]
	if !ok {
		base = defaultProvenanceScore
	}

	score := base
	if in.HasDigitalSignature {
		score += 0.10
	}
	if in.HasAuditTrailRecords {
		score += 0.05
	}
	score = vecmath.Clamp01(score)

	return Signal{
		Name:        "provenance",
		Value:       score,
		Weight:      weightProvenance,
		Explanation: fmt.Sprintf("source system %q", in.SourceSystem),
	}
}

func freshnessSignal(in Input, now time.Time) Signal {
	threshold, ok := stalenessThresholds[in.Type]
	if !ok {
		threshold = defaultStalenessThreshold
	}

	// Prefer last modification when recorded; upload date otherwise.
	ref := in.LastModified
	if ref.IsZero() {
		ref = in.UploadedAt
	}

	var score float64
	var explanation string
	if ref.IsZero() {
		score = 0.5
		explanation = "no timestamp recorded"
	} else {
		age := now.Sub(ref)
		ratio := float64(age) / float64(threshold)
		switch {
		case ratio <= 0.5:
			score = 1.0
		case ratio <= 1.0:
			score = 0.8
		case ratio <= 1.5:
			score = 0.5
		case ratio <= 2.0:
			score = 0.3
		default:
			score = 0.1
		}
		explanation = fmt.Sprintf("age %.0f days against a %.0f day staleness threshold",
			age.Hours()/24, threshold.Hours()/24)
	}

	return Signal{
		Name:        "freshness",
		Value:       score,
		Weight:      weightFreshness,
		Explanation: explanation,
	}
}

func completenessSignal(in Input) Signal {
	minLen, ok := minContentLengths[in.Type]
	if !ok {
		minLen = defaultMinContentLength
	}

	lengthRatio := vecmath.Clamp01(float64(in.ContentLength) / float64(minLen))

	score := lengthRatio
	explanation := fmt.Sprintf("content length %d of expected %d", in.ContentLength, minLen)
	if in.MetadataRequired > 0 {
		fieldRatio := vecmath.Clamp01(float64(in.MetadataProvided) / float64(in.MetadataRequired))
		score = (lengthRatio + fieldRatio) / 2
		explanation = fmt.Sprintf("%s; %d of %d metadata fields", explanation, in.MetadataProvided, in.MetadataRequired)
	}

	return Signal{
		Name:        "completeness",
		Value:       score,
		Weight:      weightCompleteness,
		Explanation: explanation,
	}
}

func relevanceSignal(in Input) Signal {
	// Neutral when no mapping confidence was supplied.
	score := 0.5
	explanation := "no concept mapping confidence available"
	if in.MappingConfidence != nil {
		score = vecmath.Clamp01(*in.MappingConfidence)
		explanation = fmt.Sprintf("concept mapping confidence %.2f", score)
	}

	switch {
	case in.CitationsCount >= 5:
		score += 0.20
	case in.CitationsCount >= 2:
		score += 0.10
	case in.CitationsCount >= 1:
		score += 0.05
	}

	return Signal{
		Name:        "relevance",
		Value:       vecmath.Clamp01(score),
		Weight:      weightRelevance,
		Explanation: explanation,
	}
}

func alignmentSignal(in Input) Signal {
	score := 1.0

	conflictPenalty := 0.1 * float64(in.ConflictsCount)
	if conflictPenalty > 0.5 {
		conflictPenalty = 0.5
	}
	score -= conflictPenalty

	if in.Duplicate {
		score -= 0.2
	}
	if in.Superseded {
		score -= 0.3
	}

	return Signal{
		Name:        "alignment",
		Value:       vecmath.Clamp01(score),
		Weight:      weightAlignment,
		Explanation: fmt.Sprintf("%d conflicts detected", in.ConflictsCount),
	}
}

func verificationSignal(in Input) Signal {
	var score float64
	var explanation string
	switch {
	case in.ReviewerApprovals >= 2:
		score = 1.0
		explanation = "approved by multiple reviewers"
	case in.ReviewerApprovals == 1:
		score = 1.0
		explanation = "approved by a reviewer"
	case in.AutoVerified:
		score = 0.7
		explanation = "automatically verified"
	default:
		score = 0.3
		explanation = "no reviewer verification"
	}

	return Signal{
		Name:        "verification",
		Value:       score,
		Weight:      weightVerification,
		Explanation: explanation,
	}
}

// recommendationFloors pairs each signal with the value below which a
// recommendation is emitted.
var recommendationFloors = map[string]float64{
	"provenance":   0.6,
	"freshness":    0.5,
	"completeness": 0.5,
	"relevance":    0.4,
	"alignment":    0.7,
	"verification": 0.5,
}

var recommendationMessages = map[string]string{
	"provenance":   "source the document from a system of record rather than manual entry",
	"freshness":    "update stale evidence; the document is past its staleness threshold",
	"completeness": "expand the document or supply the missing metadata fields",
	"relevance":    "review the concept mapping; relevance to mapped standards is weak",
	"alignment":    "resolve conflicts with other evidence for the same standards",
	"verification": "have a reviewer approve this evidence",
}
