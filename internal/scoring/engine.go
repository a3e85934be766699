// internal/scoring/engine.go
package scoring

import "math"

// floorTolerance absorbs binary rounding in the weighted sum so that an exact
// 100% profile maps to the top of the range.
const floorTolerance = 1e-9

// Engine computes YECS composite scores. It holds only its policy and is safe
// for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine for cfg after validating it.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg.clone()}, nil
}

// NewDefaultEngine returns an Engine for the fixed YECS policy.
func NewDefaultEngine() *Engine {
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		panic("scoring: default policy is invalid: " + err.Error())
	}
	return e
}

// Config returns a copy of the engine policy.
func (e *Engine) Config() Config {
	return e.cfg.clone()
}

// Score derives the six component scores, the composite and the risk tier.
// Missing or malformed signals fall back to their defaults; Score never fails.
func (e *Engine) Score(profile ApplicantProfile) Result {
	components := ComponentScores{
		BusinessViability:        e.businessViability(profile.Business),
		PaymentHistory:           e.paymentHistory(profile.Financial),
		FinancialManagement:      e.financialManagement(profile.Financial),
		PersonalCreditworthiness: e.personalCreditworthiness(profile.Credit),
		EducationBackground:      e.educationBackground(profile.Education),
		SocialVerification:       e.socialVerification(profile.Social),
	}

	pct := components.Weighted(e.cfg.Weights)
	composite := e.Composite(pct)

	return Result{
		CompositeScore:     composite,
		Components:         components,
		RiskLevel:          e.RiskLevel(composite),
		WeightedPercentage: pct,
	}
}

// Composite maps a weighted percentage onto the score range.
func (e *Engine) Composite(pct float64) int {
	pct = clamp(pct, 0, 100)
	scaled := math.Floor(pct/100*float64(e.cfg.Range.Span()) + floorTolerance)
	return e.cfg.Range.Clamp(e.cfg.Range.Min + int(scaled))
}

// RiskLevel classifies a composite score.
func (e *Engine) RiskLevel(score int) RiskLevel {
	cut := e.cfg.RiskCutoffs
	switch {
	case score >= cut.Low:
		return RiskLow
	case score >= cut.Medium:
		return RiskMedium
	case score >= cut.High:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
