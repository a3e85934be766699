// internal/scoring/config.go
package scoring

import (
	"fmt"
	"math"

	apperrors "yecs-workers/internal/common/errors"
)

// weightTolerance bounds how far the weight vector may drift from 1.0.
const weightTolerance = 1e-9

// WeightSet holds the share of each component in the composite score.
// All weights must sum to 1.0.
type WeightSet struct {
	BusinessViability        float64 `json:"business_viability"`
	PaymentHistory           float64 `json:"payment_history"`
	FinancialManagement      float64 `json:"financial_management"`
	PersonalCreditworthiness float64 `json:"personal_creditworthiness"`
	EducationBackground      float64 `json:"education_background"`
	SocialVerification       float64 `json:"social_verification"`
}

// DefaultWeights returns the fixed YECS weight vector.
func DefaultWeights() WeightSet {
	return WeightSet{
		BusinessViability:        0.25,
		PaymentHistory:           0.20,
		FinancialManagement:      0.18,
		PersonalCreditworthiness: 0.15,
		EducationBackground:      0.12,
		SocialVerification:       0.10,
	}
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	return w.BusinessViability + w.PaymentHistory + w.FinancialManagement +
		w.PersonalCreditworthiness + w.EducationBackground + w.SocialVerification
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w WeightSet) Validate() error {
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return fmt.Errorf("weights sum to %.6f, must sum to 1.0", w.Sum())
	}
	for _, v := range w.asList() {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("invalid weight: %f", v)
		}
	}
	return nil
}

func (w WeightSet) asList() []float64 {
	return []float64{
		w.BusinessViability,
		w.PaymentHistory,
		w.FinancialManagement,
		w.PersonalCreditworthiness,
		w.EducationBackground,
		w.SocialVerification,
	}
}

// Range is the closed interval composite scores are mapped into.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Span returns the width of the range.
func (r Range) Span() int {
	return r.Max - r.Min
}

// Clamp bounds v to the range.
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// RiskCutoffs are the inclusive lower bounds of each risk tier. Scores below
// High fall into VERY_HIGH.
type RiskCutoffs struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Step awards Points to values at or below Max. Step tables are scanned in
// order and the first match wins; values above every Max earn nothing.
type Step struct {
	Max    float64
	Points float64
}

func stepPoints(v float64, steps []Step) float64 {
	for _, s := range steps {
		if v <= s.Max {
			return s.Points
		}
	}
	return 0
}

// EducationTier awards Points when any keyword occurs in the education level.
type EducationTier struct {
	Keywords []string
	Points   float64
}

// Budgets are the point allocations of every sub-formula. Each component's
// budgets add up to 100.
type Budgets struct {
	// business viability
	PlanQuality     float64
	RevenueRealism  float64
	Experience      float64
	ExperiencePerYr float64
	MarketAnalysis  float64

	// payment history
	UtilityPayments      float64
	RentPayments         float64
	StudentLoanPayments  float64
	SubscriptionPayments float64
	TaxFiling            float64

	// financial management
	DebtToIncome     []Step
	SavingsRate      float64
	CashFlow         float64
	OverdraftAvoided float64

	// personal creditworthiness
	TraditionalScore  float64
	NoHistoryNeutral  float64
	CreditUtilization []Step
	CreditInquiries   []Step

	// education background
	IndustryExperience      float64
	IndustryExperiencePerYr float64
	Certifications          float64
	CertificationEach       float64
	EntrepreneurshipCourses float64
	CoursePoints            float64

	// social verification
	IdentityVerification float64
	ProfessionalNetwork  float64
	OnlinePresence       float64
	CommunityInvolvement float64
}

// DefaultBudgets returns the fixed point budgets.
func DefaultBudgets() Budgets {
	return Budgets{
		PlanQuality:     30,
		RevenueRealism:  25,
		Experience:      25,
		ExperiencePerYr: 5,
		MarketAnalysis:  20,

		UtilityPayments:      30,
		RentPayments:         25,
		StudentLoanPayments:  20,
		SubscriptionPayments: 15,
		TaxFiling:            10,

		DebtToIncome:     []Step{{Max: 0.3, Points: 30}, {Max: 0.5, Points: 20}, {Max: 0.8, Points: 10}},
		SavingsRate:      25,
		CashFlow:         25,
		OverdraftAvoided: 20,

		TraditionalScore:  50,
		NoHistoryNeutral:  25,
		CreditUtilization: []Step{{Max: 0.1, Points: 30}, {Max: 0.3, Points: 20}, {Max: 0.5, Points: 10}},
		CreditInquiries:   []Step{{Max: 0, Points: 20}, {Max: 2, Points: 15}, {Max: 4, Points: 10}},

		IndustryExperience:      30,
		IndustryExperiencePerYr: 3,
		Certifications:          20,
		CertificationEach:       5,
		EntrepreneurshipCourses: 10,
		CoursePoints:            2,

		IdentityVerification: 30,
		ProfessionalNetwork:  25,
		OnlinePresence:       25,
		CommunityInvolvement: 20,
	}
}

// DefaultEducationTiers returns the degree tiers in priority order.
func DefaultEducationTiers() []EducationTier {
	return []EducationTier{
		{Keywords: []string{"phd", "doctorate"}, Points: 40},
		{Keywords: []string{"master", "mba"}, Points: 35},
		{Keywords: []string{"bachelor"}, Points: 30},
		{Keywords: []string{"associate"}, Points: 20},
		{Keywords: []string{"high school"}, Points: 15},
	}
}

// Config is the read-only scoring policy handed to an Engine.
type Config struct {
	Weights        WeightSet
	Range          Range
	RiskCutoffs    RiskCutoffs
	Budgets        Budgets
	EducationTiers []EducationTier

	// DefaultIndustryRevenue is used when a profile carries no industry average.
	DefaultIndustryRevenue float64
}

// DefaultConfig returns the fixed YECS policy.
func DefaultConfig() Config {
	return Config{
		Weights:                DefaultWeights(),
		Range:                  Range{Min: 300, Max: 850},
		RiskCutoffs:            RiskCutoffs{Low: 750, Medium: 650, High: 550},
		Budgets:                DefaultBudgets(),
		EducationTiers:         DefaultEducationTiers(),
		DefaultIndustryRevenue: 100000,
	}
}

// Validate reports whether the policy is internally consistent.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return apperrors.NewInvalidArgumentError("scoring weights", err.Error())
	}
	if c.Range.Span() <= 0 {
		return apperrors.NewInvalidArgumentError("score range",
			fmt.Sprintf("min %d must be below max %d", c.Range.Min, c.Range.Max))
	}
	cut := c.RiskCutoffs
	if !(cut.Low > cut.Medium && cut.Medium > cut.High) {
		return apperrors.NewInvalidArgumentError("risk cutoffs",
			fmt.Sprintf("cutoffs must be strictly descending, got %d/%d/%d", cut.Low, cut.Medium, cut.High))
	}
	return nil
}

// clone deep-copies the slices so an Engine never shares them with its caller.
func (c Config) clone() Config {
	out := c
	out.Budgets.DebtToIncome = append([]Step(nil), c.Budgets.DebtToIncome...)
	out.Budgets.CreditUtilization = append([]Step(nil), c.Budgets.CreditUtilization...)
	out.Budgets.CreditInquiries = append([]Step(nil), c.Budgets.CreditInquiries...)
	out.EducationTiers = make([]EducationTier, len(c.EducationTiers))
	for i, t := range c.EducationTiers {
		out.EducationTiers[i] = EducationTier{
			Keywords: append([]string(nil), t.Keywords...),
			Points:   t.Points,
		}
	}
	return out
}
