// internal/workers/fairness/calculate-fairness-metrics/models.go
package calculatefairnessmetrics

import "yecs-workers/internal/fairness"

type Input struct {
	Predictions  []fairness.ScoreRecord       `json:"predictions"`
	Outcomes     []fairness.OutcomeRecord     `json:"outcomes,omitempty"`
	Demographics []fairness.DemographicRecord `json:"demographics"`
}

type Output struct {
	Metrics          *fairness.FairnessMetrics `json:"metrics"`
	AttributeCount   int                       `json:"attributeCount"`
	HasEqualizedOdds bool                      `json:"hasEqualizedOdds"`
}
