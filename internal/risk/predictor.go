// Package risk forecasts the likelihood that a standard fails its next
// review. Eight weighted risk factors are combined, time-adjusted for review
// proximity, calibrated through a sigmoid, and blended with a historical
// base rate into a bounded [0, MaxRisk] score.
package risk

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	dErrors "veritrail/pkg/domain-errors"
	"veritrail/pkg/vecmath"
)

// Predictor computes gap-risk scores. Stateless and safe for concurrent use.
type Predictor struct {
	cal    Calibration
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Option configures the Predictor.
type Option func(*Predictor)

// WithCalibration overrides the default calibration constants.
func WithCalibration(cal Calibration) Option {
	return func(p *Predictor) { p.cal = cal }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Predictor) { p.logger = logger }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) { p.now = now }
}

// New creates a predictor.
func New(opts ...Option) *Predictor {
	p := &Predictor{
		cal:    DefaultCalibration(),
		tracer: otel.Tracer("veritrail/risk"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict computes the gap-risk score for one standard.
func (p *Predictor) Predict(ctx context.Context, in Input) (Score, error) {
	_, span := p.tracer.Start(ctx, "risk.Predict", trace.WithAttributes(
		attribute.String("standard_id", string(in.StandardID)),
	))
	defer span.End()

	if in.StandardID.IsEmpty() {
		return Score{}, dErrors.New(dErrors.CodeInvalidInput, "standard id is required")
	}
	if in.CoveragePct < 0 || in.CoveragePct > 100 {
		return Score{}, dErrors.New(dErrors.CodeInvalidInput, "coverage percentage must be in [0,100]")
	}

	factors := p.factors(in)

	var raw float64
	for _, f := range factors {
		raw += f.Contribution
	}

	adjusted := raw * timeMultiplier(in.DaysToReview)
	calibrated := sigmoid(p.cal.SigmoidGain * (adjusted - 0.5) / p.cal.Temperature)
	blended := p.cal.BlendWeight*calibrated + (1-p.cal.BlendWeight)*p.cal.HistoricalBaseRate
	if blended > p.cal.MaxRisk {
		blended = p.cal.MaxRisk
	}

	level := levelFor(blended)
	if imminentReviewEscalation(in.DaysToReview, factors) && level != LevelCritical {
		level = LevelCritical
	}

	score := Score{
		StandardID:          in.StandardID,
		RiskScore:           blended,
		Level:               level,
		Factors:             factors,
		PredictedIssues:     predictedIssues(factors),
		RemediationPriority: remediationPriority(level, in.DaysToReview),
		DaysToReview:        in.DaysToReview,
		Confidence:          p.confidence(in, factors),
		Timestamp:           p.now(),
	}

	if p.logger != nil && score.Level == LevelCritical {
		p.logger.WarnContext(ctx, "standard at critical gap risk",
			"standard_id", in.StandardID,
			"risk_score", blended,
			"days_to_review", in.DaysToReview,
		)
	}

	return score, nil
}

func (p *Predictor) factors(in Input) []Factor {
	coverage := 1 - in.CoveragePct/100

	// Empty trust and age lists mean the signal was never measured.
	// Absence of evidence is already priced by the coverage factor, so
	// unmeasured signals contribute no additional risk here.
	var trustRisk, meanTrust float64
	if len(in.TrustScores) > 0 {
		meanTrust = vecmath.Mean(in.TrustScores)
		trustRisk = vecmath.Clamp01(1 - meanTrust)
	}

	var stalenessRisk, meanAge float64
	if len(in.EvidenceAgeDays) > 0 {
		meanAge = vecmath.Mean(in.EvidenceAgeDays)
		stalenessRisk = stalenessStep(meanAge)
	}

	var taskDebt float64
	if in.TotalTasks > 0 {
		taskDebt = math.Min(1, 2*float64(in.OverdueTasks)/float64(in.TotalTasks))
	}

	volatility := 0.0
	var updateFreq float64
	if in.UpdateFrequencyDays != nil {
		updateFreq = float64(*in.UpdateFrequencyDays)
		volatility = volatilityStep(updateFreq)
	}

	build := func(name string, raw, normalized, weight float64) Factor {
		normalized = vecmath.Clamp01(normalized)
		return Factor{
			Name:         name,
			Raw:          raw,
			Normalized:   normalized,
			Weight:       weight,
			Contribution: weight * normalized,
		}
	}

	return []Factor{
		build("coverage", in.CoveragePct, coverage, weightCoverage),
		build("trust", meanTrust, trustRisk, weightTrust),
		build("staleness", meanAge, stalenessRisk, weightStaleness),
		build("task_debt", float64(in.OverdueTasks), taskDebt, weightTaskDebt),
		build("change_impact", float64(in.RecentChanges), changeImpactStep(in.RecentChanges), weightChangeImpact),
		build("review_history", float64(in.HistoricalFindings), reviewHistoryStep(in.HistoricalFindings), weightReviewHistory),
		build("complexity", p.cal.ComplexityBaseline, p.cal.ComplexityBaseline, weightComplexity),
		build("volatility", updateFreq, volatility, weightVolatility),
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func stalenessStep(meanAgeDays float64) float64 {
	switch {
	case meanAgeDays <= 90:
		return 0.0
	case meanAgeDays <= 180:
		return 0.2
	case meanAgeDays <= 365:
		return 0.4
	case meanAgeDays <= 730:
		return 0.7
	default:
		return 0.9
	}
}

func changeImpactStep(recentChanges int) float64 {
	switch {
	case recentChanges == 0:
		return 0.0
	case recentChanges <= 2:
		return 0.3
	case recentChanges <= 5:
		return 0.6
	default:
		return 0.9
	}
}

func reviewHistoryStep(findings int) float64 {
	switch {
	case findings == 0:
		return 0.1
	case findings <= 2:
		return 0.4
	case findings <= 5:
		return 0.7
	default:
		return 0.95
	}
}

// volatilityStep is U-shaped: evidence updated too often signals churn,
// evidence updated too rarely signals neglect.
func volatilityStep(updateFrequencyDays float64) float64 {
	switch {
	case updateFrequencyDays <= 7:
		return 0.6
	case updateFrequencyDays <= 30:
		return 0.2
	case updateFrequencyDays <= 90:
		return 0.0
	case updateFrequencyDays <= 180:
		return 0.3
	case updateFrequencyDays <= 365:
		return 0.6
	default:
		return 0.8
	}
}

func timeMultiplier(daysToReview int) float64 {
	switch {
	case daysToReview <= 30:
		return 1.3
	case daysToReview <= 90:
		return 1.15
	case daysToReview <= 180:
		return 1.05
	default:
		return 1.0
	}
}

// imminentReviewEscalation forces the critical level when review is at most
// 30 days out and at least three factors are individually severe. The
// sigmoid calibration compresses even very bad weighted sums below the plain
// critical threshold, so boundary behavior near a review is rule-driven.
func imminentReviewEscalation(daysToReview int, factors []Factor) bool {
	if daysToReview > 30 {
		return false
	}
	severe := 0
	for _, f := range factors {
		if f.Normalized >= 0.7 {
			severe++
		}
	}
	return severe >= 3
}

var factorIssueMessages = map[string]string{
	"coverage":       "evidence coverage is insufficient for this standard",
	"trust":          "existing evidence has low trust scores",
	"staleness":      "evidence is aging past its useful life",
	"task_debt":      "remediation tasks are overdue",
	"change_impact":  "recent institutional changes may have invalidated evidence",
	"review_history": "prior reviews recorded findings against this standard",
	"complexity":     "standard complexity raises assessment effort",
	"volatility":     "evidence update cadence is unstable",
}

// predictedIssues derives messages from the top three contributing factors,
// skipping factors that are not materially elevated.
func predictedIssues(factors []Factor) []string {
	ranked := make([]Factor, len(factors))
	copy(ranked, factors)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Contribution > ranked[j].Contribution
	})

	var out []string
	for _, f := range ranked {
		if len(out) == 3 {
			break
		}
		if f.Normalized < 0.5 {
			continue
		}
		out = append(out, factorIssueMessages[f.Name])
	}
	return out
}

// remediationPriority combines risk level and review proximity. 1 is the
// most urgent.
func remediationPriority(level Level, daysToReview int) int {
	switch level {
	case LevelCritical:
		return 1
	case LevelHigh:
		if daysToReview <= 30 {
			return 1
		}
		return 2
	case LevelMedium:
		if daysToReview <= 30 {
			return 2
		}
		return 3
	case LevelLow:
		return 4
	default:
		return 5
	}
}

// confidence reflects how much signal backed the forecast: a base of 0.7,
// up to 0.2 from evidence trust, and 0.1 when the factors broadly agree.
func (p *Predictor) confidence(in Input, factors []Factor) float64 {
	meanTrust := p.cal.NeutralTrust
	if len(in.TrustScores) > 0 {
		meanTrust = vecmath.Mean(in.TrustScores)
	}

	conf := 0.7 + 0.2*vecmath.Clamp01(meanTrust)

	normalized := make([]float64, len(factors))
	for i, f := range factors {
		normalized[i] = f.Normalized
	}
	if vecmath.StdDev(normalized) < 0.2 {
		conf += 0.1
	}

	return vecmath.Clamp01(conf)
}
