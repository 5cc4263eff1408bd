package matcher

import (
	dErrors "veritrail/pkg/domain-errors"
)

// Weights configures the relative importance of the five sub-scores.
// Weights are normalized to sum 1.0 before use; negative values and all-zero
// configurations fail fast.
type Weights struct {
	Semantic     float64 `json:"semantic"`
	Hierarchy    float64 `json:"hierarchy"`
	Domain       float64 `json:"domain"`
	EvidenceType float64 `json:"evidence_type"`
	Temporal     float64 `json:"temporal"`
}

// DefaultWeights returns the standard weighting profile.
func DefaultWeights() Weights {
	return Weights{
		Semantic:     0.35,
		Hierarchy:    0.25,
		Domain:       0.20,
		EvidenceType: 0.15,
		Temporal:     0.05,
	}
}

// Normalize returns a copy scaled so the weights sum to exactly 1.0.
func (w Weights) Normalize() (Weights, error) {
	vals := []float64{w.Semantic, w.Hierarchy, w.Domain, w.EvidenceType, w.Temporal}
	var sum float64
	for _, v := range vals {
		if v < 0 {
			return Weights{}, dErrors.New(dErrors.CodeInvalidInput, "match weights must be non-negative")
		}
		sum += v
	}
	if sum == 0 {
		return Weights{}, dErrors.New(dErrors.CodeInvalidInput, "match weights must not all be zero")
	}

	return Weights{
		Semantic:     w.Semantic / sum,
		Hierarchy:    w.Hierarchy / sum,
		Domain:       w.Domain / sum,
		EvidenceType: w.EvidenceType / sum,
		Temporal:     w.Temporal / sum,
	}, nil
}

// combine computes the weighted confidence from adjusted sub-scores.
// Callers must pass normalized weights.
func (w Weights) combine(s SubScores) float64 {
	return w.Semantic*s.Semantic +
		w.Hierarchy*s.Hierarchy +
		w.Domain*s.Domain +
		w.EvidenceType*s.EvidenceType +
		w.Temporal*s.Temporal
}
