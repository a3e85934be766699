// internal/fairness/models.go
package fairness

import (
	"fmt"
	"strings"

	apperrors "yecs-workers/internal/common/errors"
)

// ScoreRecord is one historical composite score.
type ScoreRecord struct {
	UserID string  `json:"user_id" yaml:"user_id"`
	Score  float64 `json:"yecs_score" yaml:"yecs_score"`
}

// DemographicRecord carries the protected attribute values of one user.
// An empty value is treated as absent.
type DemographicRecord struct {
	UserID     string            `json:"user_id" yaml:"user_id"`
	Attributes map[string]string `json:"attributes" yaml:"attributes"`
}

// OutcomeRecord is the ground truth for one user. A nil ActualApproval means
// the outcome is unknown.
type OutcomeRecord struct {
	UserID         string `json:"user_id" yaml:"user_id"`
	ActualApproval *bool  `json:"actual_approval,omitempty" yaml:"actual_approval,omitempty"`
}

// GroupStats summarises the scores of one attribute value.
type GroupStats struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	// DisparateImpact is nil when the overall mean is not positive.
	DisparateImpact *float64 `json:"disparate_impact,omitempty"`
	Flagged         bool     `json:"flagged"`
}

// AttributeAnalysis is the bias analysis of one protected attribute.
type AttributeAnalysis struct {
	Attribute    string                   `json:"attribute"`
	OverallMean  float64                  `json:"overall_mean"`
	Groups       []GroupStats             `json:"groups"`
	BiasedGroups []GroupStats             `json:"biased_groups"`
	BiasDetected bool                     `json:"bias_detected"`
	Error        *apperrors.StandardError `json:"error,omitempty"`
}

// BiasReport is the outcome of DetectBias.
type BiasReport struct {
	Attributes   []AttributeAnalysis `json:"attributes"`
	BiasDetected bool                `json:"bias_detected"`
	// JoinedRows counts the score rows that matched a demographic record.
	JoinedRows int `json:"joined_rows"`
}

// Attribute returns the analysis for name, if the attribute was present.
func (r *BiasReport) Attribute(name string) (*AttributeAnalysis, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Attributes {
		if r.Attributes[i].Attribute == name {
			return &r.Attributes[i], true
		}
	}
	return nil, false
}

// FlaggedGroupCount returns the number of flagged groups across all attributes.
func (r *BiasReport) FlaggedGroupCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, a := range r.Attributes {
		n += len(a.BiasedGroups)
	}
	return n
}

// GroupFairness holds approval statistics for one attribute value.
type GroupFairness struct {
	Group                string  `json:"group"`
	TotalApplications    int     `json:"total_applications"`
	ApprovedApplications int     `json:"approved_applications"`
	ApprovalRate         float64 `json:"approval_rate"`
	AverageScore         float64 `json:"average_score"`
}

// GroupOdds holds the equalized-odds rates for one attribute value.
type GroupOdds struct {
	Group             string  `json:"group"`
	TruePositiveRate  float64 `json:"true_positive_rate"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
}

// AttributeFairness is the fairness summary of one protected attribute.
// EqualizedOdds is nil when no joined row carried ground truth.
type AttributeFairness struct {
	Attribute     string                   `json:"attribute"`
	Groups        []GroupFairness          `json:"groups"`
	EqualizedOdds []GroupOdds              `json:"equalized_odds,omitempty"`
	Error         *apperrors.StandardError `json:"error,omitempty"`
}

// FairnessMetrics is the outcome of CalculateFairnessMetrics.
type FairnessMetrics struct {
	Attributes []AttributeFairness `json:"attributes"`
}

// Attribute returns the metrics for name, if the attribute was present.
func (m *FairnessMetrics) Attribute(name string) (*AttributeFairness, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Attributes {
		if m.Attributes[i].Attribute == name {
			return &m.Attributes[i], true
		}
	}
	return nil, false
}

// Method selects a mitigation strategy.
type Method string

const (
	MethodEqualizedOdds     Method = "equalized_odds"
	MethodDemographicParity Method = "demographic_parity"
)

// ParseMethod maps a method name to a Method. Unknown names are an
// INVALID_ARGUMENT error.
func ParseMethod(name string) (Method, error) {
	switch m := Method(strings.TrimSpace(name)); m {
	case MethodEqualizedOdds, MethodDemographicParity:
		return m, nil
	default:
		return "", apperrors.NewInvalidArgumentError("mitigation method",
			fmt.Sprintf("unknown bias mitigation method: %q", name))
	}
}
