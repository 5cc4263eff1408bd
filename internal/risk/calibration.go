package risk

// Calibration holds the tunable constants of the risk model. The defaults
// reproduce the behavior the model was tuned against; none of them is a law
// of the domain. In particular the blend between the calibrated score and
// the historical base rate is configurable.
type Calibration struct {
	// SigmoidGain and Temperature shape the logistic calibration:
	// sigmoid(Gain x (adjusted - 0.5) / Temperature).
	SigmoidGain float64
	Temperature float64

	// BlendWeight is the share of the calibrated score in the final blend;
	// the remainder comes from HistoricalBaseRate.
	BlendWeight        float64
	HistoricalBaseRate float64

	// MaxRisk caps the final score. A forecast is never certain.
	MaxRisk float64

	// ComplexityBaseline is the fixed complexity factor pending real
	// per-standard complexity modeling.
	ComplexityBaseline float64

	// NeutralTrust substitutes for an empty trust-score list when judging
	// forecast confidence.
	NeutralTrust float64
}

// DefaultCalibration returns the tuned defaults.
func DefaultCalibration() Calibration {
	return Calibration{
		SigmoidGain:        10.0,
		Temperature:        1.5,
		BlendWeight:        0.7,
		HistoricalBaseRate: 0.12,
		MaxRisk:            0.95,
		ComplexityBaseline: 0.3,
		NeutralTrust:       0.7,
	}
}

// Factor weights. They sum to 1.0.
const (
	weightCoverage      = 0.25
	weightTrust         = 0.20
	weightStaleness     = 0.15
	weightTaskDebt      = 0.10
	weightChangeImpact  = 0.10
	weightReviewHistory = 0.10
	weightComplexity    = 0.05
	weightVolatility    = 0.05
)
