package risk

import (
	"context"
	"sort"
	"sync"

	id "veritrail/pkg/domain"

	dErrors "veritrail/pkg/domain-errors"
)

// Explainer wraps a Predictor and retains the latest score per standard so
// that portfolio-level aggregates and per-standard explanations can be served
// without recomputation. Safe for concurrent use.
type Explainer struct {
	predictor *Predictor

	mu     sync.RWMutex
	scores map[id.StandardID]Score
}

// NewExplainer creates an explainer over the given predictor.
func NewExplainer(predictor *Predictor) *Explainer {
	return &Explainer{
		predictor: predictor,
		scores:    make(map[id.StandardID]Score),
	}
}

// Compute predicts the gap risk for one standard and retains the result.
// Recomputing a standard replaces its previous score.
func (e *Explainer) Compute(ctx context.Context, in Input) (Score, error) {
	score, err := e.predictor.Predict(ctx, in)
	if err != nil {
		return Score{}, err
	}

	e.mu.Lock()
	e.scores[score.StandardID] = score
	e.mu.Unlock()

	return score, nil
}

// FactorShare is one factor's share of the portfolio's total risk
// contribution.
type FactorShare struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Percent      float64 `json:"percent"`
}

// Aggregate summarizes all retained scores.
type Aggregate struct {
	StandardsScored int           `json:"standards_scored"`
	MeanRisk        float64       `json:"mean_risk"`
	MeanTrust       float64       `json:"mean_trust"`
	LevelCounts     map[Level]int `json:"level_counts"`
	TopFactors      []FactorShare `json:"top_factors"`
}

// Aggregate reports portfolio-level risk over every standard scored so far.
// An empty portfolio yields a zero-valued aggregate, not an error.
func (e *Explainer) Aggregate(ctx context.Context) Aggregate {
	e.mu.RLock()
	defer e.mu.RUnlock()

	agg := Aggregate{
		LevelCounts: make(map[Level]int),
	}
	if len(e.scores) == 0 {
		return agg
	}

	byFactor := make(map[string]float64)
	var riskSum, trustSum, totalContribution float64
	for _, score := range e.scores {
		agg.StandardsScored++
		riskSum += score.RiskScore
		agg.LevelCounts[score.Level]++

		for _, f := range score.Factors {
			byFactor[f.Name] += f.Contribution
			totalContribution += f.Contribution
			if f.Name == "trust" {
				// The trust factor stores risk; invert to report trust.
				trustSum += 1 - f.Normalized
			}
		}
	}

	agg.MeanRisk = riskSum / float64(agg.StandardsScored)
	agg.MeanTrust = trustSum / float64(agg.StandardsScored)

	shares := make([]FactorShare, 0, len(byFactor))
	for name, contribution := range byFactor {
		share := FactorShare{Name: name, Contribution: contribution}
		if totalContribution > 0 {
			share.Percent = 100 * contribution / totalContribution
		}
		shares = append(shares, share)
	}
	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Contribution != shares[j].Contribution {
			return shares[i].Contribution > shares[j].Contribution
		}
		return shares[i].Name < shares[j].Name
	})
	if len(shares) > 5 {
		shares = shares[:5]
	}
	agg.TopFactors = shares

	return agg
}

// Explain returns the retained score for one standard. A standard that was
// never computed yields a not-found error.
func (e *Explainer) Explain(ctx context.Context, standardID id.StandardID) (Score, error) {
	if standardID.IsEmpty() {
		return Score{}, dErrors.New(dErrors.CodeInvalidInput, "standard id is required")
	}

	e.mu.RLock()
	score, ok := e.scores[standardID]
	e.mu.RUnlock()

	if !ok {
		return Score{}, dErrors.Newf(dErrors.CodeNotFound, "standard %s has not been scored", standardID)
	}
	return score, nil
}
