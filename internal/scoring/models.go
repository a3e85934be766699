// internal/scoring/models.go
package scoring

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Section is one named group of applicant signals, as decoded from JSON.
type Section map[string]interface{}

// Float returns the numeric value stored under key, or def when the key is
// missing, not numeric, or not finite.
func (s Section) Float(key string, def float64) float64 {
	raw, ok := s[key]
	if !ok || raw == nil {
		return def
	}
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return def
		}
		v = f
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return def
		}
		v = f
	default:
		return def
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// String returns the string stored under key, or def.
func (s Section) String(key, def string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return def
}

// ApplicantProfile is the scoring input assembled by the caller.
type ApplicantProfile struct {
	Business  Section `json:"business" yaml:"business"`
	Financial Section `json:"financial" yaml:"financial"`
	Credit    Section `json:"credit" yaml:"credit"`
	Education Section `json:"education" yaml:"education"`
	Social    Section `json:"social" yaml:"social"`
}

// ComponentScores are the six sub-scores, each in [0,100].
type ComponentScores struct {
	BusinessViability        float64 `json:"business_viability"`
	PaymentHistory           float64 `json:"payment_history"`
	FinancialManagement      float64 `json:"financial_management"`
	PersonalCreditworthiness float64 `json:"personal_creditworthiness"`
	EducationBackground      float64 `json:"education_background"`
	SocialVerification       float64 `json:"social_verification"`
}

// Weighted applies w and returns the weighted percentage in [0,100].
func (c ComponentScores) Weighted(w WeightSet) float64 {
	return c.BusinessViability*w.BusinessViability +
		c.PaymentHistory*w.PaymentHistory +
		c.FinancialManagement*w.FinancialManagement +
		c.PersonalCreditworthiness*w.PersonalCreditworthiness +
		c.EducationBackground*w.EducationBackground +
		c.SocialVerification*w.SocialVerification
}

// Map returns the components keyed by their JSON names.
func (c ComponentScores) Map() map[string]float64 {
	return map[string]float64{
		"business_viability":        c.BusinessViability,
		"payment_history":           c.PaymentHistory,
		"financial_management":      c.FinancialManagement,
		"personal_creditworthiness": c.PersonalCreditworthiness,
		"education_background":      c.EducationBackground,
		"social_verification":       c.SocialVerification,
	}
}

// RiskLevel is the ordered risk classification of a composite score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// Rank orders risk levels from LOW (0) to VERY_HIGH (3). Unknown levels rank last.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// Result is the outcome of one scoring call.
type Result struct {
	CompositeScore     int             `json:"yecs_score"`
	Components         ComponentScores `json:"component_scores"`
	RiskLevel          RiskLevel       `json:"risk_level"`
	WeightedPercentage float64         `json:"weighted_percentage"`
}
