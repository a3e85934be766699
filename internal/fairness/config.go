// internal/fairness/config.go
package fairness

import (
	"fmt"
	"math"

	apperrors "yecs-workers/internal/common/errors"
)

// ScoreRange bounds adjusted scores.
type ScoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clip returns v limited to the range.
func (r ScoreRange) Clip(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Config is the audit policy. It is copied at construction and never mutated.
type Config struct {
	// ProtectedAttributes are analysed in this order.
	ProtectedAttributes []string `json:"protected_attributes"`
	// BiasThreshold is the allowed deviation of a disparate-impact ratio from 1.0.
	BiasThreshold float64 `json:"bias_threshold"`
	// ApprovalThreshold is the score at or above which an applicant counts as approved.
	ApprovalThreshold   float64    `json:"approval_threshold"`
	ScoreRange          ScoreRange `json:"score_range"`
	EqualizedOddsFactor float64    `json:"equalized_odds_factor"`
	ParityBoost         float64    `json:"parity_boost"`
}

// DefaultProtectedAttributes returns the tracked attributes in report order.
func DefaultProtectedAttributes() []string {
	return []string{"age", "gender", "race", "ethnicity", "zip_code"}
}

// DefaultConfig returns the fixed YECS audit policy.
func DefaultConfig() Config {
	return Config{
		ProtectedAttributes: DefaultProtectedAttributes(),
		BiasThreshold:       0.1,
		ApprovalThreshold:   650,
		ScoreRange:          ScoreRange{Min: 300, Max: 850},
		EqualizedOddsFactor: 0.1,
		ParityBoost:         20,
	}
}

// Validate checks the policy for internal consistency.
func (c Config) Validate() error {
	if len(c.ProtectedAttributes) == 0 {
		return apperrors.NewInvalidArgumentError("protected attributes", "at least one attribute is required")
	}
	seen := make(map[string]struct{}, len(c.ProtectedAttributes))
	for _, attr := range c.ProtectedAttributes {
		if attr == "" {
			return apperrors.NewInvalidArgumentError("protected attributes", "attribute names must not be empty")
		}
		if _, dup := seen[attr]; dup {
			return apperrors.NewInvalidArgumentError("protected attributes", fmt.Sprintf("duplicate attribute %q", attr))
		}
		seen[attr] = struct{}{}
	}
	if !isFinite(c.BiasThreshold) || c.BiasThreshold < 0 {
		return apperrors.NewInvalidArgumentError("bias threshold", fmt.Sprintf("must be a non-negative number, got %v", c.BiasThreshold))
	}
	if !isFinite(c.ScoreRange.Min) || !isFinite(c.ScoreRange.Max) || c.ScoreRange.Min >= c.ScoreRange.Max {
		return apperrors.NewInvalidArgumentError("score range",
			fmt.Sprintf("min %v must be below max %v", c.ScoreRange.Min, c.ScoreRange.Max))
	}
	if !isFinite(c.ApprovalThreshold) {
		return apperrors.NewInvalidArgumentError("approval threshold", "must be finite")
	}
	if !isFinite(c.EqualizedOddsFactor) || c.EqualizedOddsFactor < 0 || c.EqualizedOddsFactor > 1 {
		return apperrors.NewInvalidArgumentError("equalized odds factor",
			fmt.Sprintf("must be within [0,1], got %v", c.EqualizedOddsFactor))
	}
	if !isFinite(c.ParityBoost) || c.ParityBoost < 0 {
		return apperrors.NewInvalidArgumentError("parity boost", fmt.Sprintf("must be non-negative, got %v", c.ParityBoost))
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.ProtectedAttributes = append([]string(nil), c.ProtectedAttributes...)
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
