package matcher

import "veritrail/pkg/vecmath"

// adjustment holds the multiplicative nudges one strategy applies to the raw
// sub-scores. A zero field means "leave unchanged" (factor 1.0).
type adjustment struct {
	semantic     float64
	hierarchy    float64
	domain       float64
	evidenceType float64
	temporal     float64
}

var strategyAdjustments = map[Strategy]adjustment{
	StrategyExactSemantic:   {semantic: 1.10, temporal: 1.05},
	StrategyInferential:     {semantic: 0.95, hierarchy: 1.15},
	StrategyCrossDomain:     {semantic: 0.90, domain: 1.25},
	StrategyEmergentPattern: {semantic: 0.85, hierarchy: 1.10, evidenceType: 1.10},
}

func factor(f float64) float64 {
	if f == 0 {
		return 1.0
	}
	return f
}

// applyStrategy returns the adjusted copy of raw for the given strategy,
// re-clamped to [0, 1]. The raw scores are left untouched so consumers can
// always distinguish pre- from post-adjustment values.
func applyStrategy(strategy Strategy, raw SubScores) SubScores {
	adj := strategyAdjustments[strategy]
	return SubScores{
		Semantic:     vecmath.Clamp01(raw.Semantic * factor(adj.semantic)),
		Hierarchy:    vecmath.Clamp01(raw.Hierarchy * factor(adj.hierarchy)),
		Domain:       vecmath.Clamp01(raw.Domain * factor(adj.domain)),
		EvidenceType: vecmath.Clamp01(raw.EvidenceType * factor(adj.evidenceType)),
		Temporal:     vecmath.Clamp01(raw.Temporal * factor(adj.temporal)),
	}
}

// classifyComplexity derives the match complexity from the adjusted score
// pattern. Rules are evaluated in order:
//
//	all five >= 0.8                                  -> direct
//	strong semantic+hierarchy, weak domain/evidence  -> inferential
//	weak domain but decent semantic                  -> synthetic
//	anything else                                    -> emergent
func classifyComplexity(s SubScores) Complexity {
	if s.Semantic >= 0.8 && s.Hierarchy >= 0.8 && s.Domain >= 0.8 && s.EvidenceType >= 0.8 && s.Temporal >= 0.8 {
		return ComplexityDirect
	}
	if s.Semantic >= 0.7 && s.Hierarchy >= 0.6 && (s.Domain < 0.6 || s.EvidenceType < 0.6) {
		return ComplexityInferential
	}
	if s.Domain < 0.5 && s.Semantic >= 0.6 {
		return ComplexitySynthetic
	}
	return ComplexityEmergent
}

// reliability estimates how much the five sub-scores agree: 1 minus the
// normalized standard deviation, boosted 10% when the mean is high. The
// maximum possible stddev of values in [0,1] is 0.5, which anchors the
// normalization.
func reliability(s SubScores) float64 {
	scores := s.asSlice()
	std := vecmath.StdDev(scores)
	rel := 1.0 - vecmath.Clamp01(std/0.5)
	if vecmath.Mean(scores) >= 0.8 {
		rel *= 1.10
	}
	return vecmath.Clamp01(rel)
}
