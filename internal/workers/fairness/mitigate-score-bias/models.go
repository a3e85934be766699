// internal/workers/fairness/mitigate-score-bias/models.go
package mitigatescorebias

import "yecs-workers/internal/fairness"

type Input struct {
	Scores       []fairness.ScoreRecord       `json:"scores"`
	Demographics []fairness.DemographicRecord `json:"demographics"`
	Method       string                       `json:"method"`
}

// Output lists the adjusted score of every user that matched a demographic
// record, in input order.
type Output struct {
	Method         fairness.Method        `json:"method"`
	AdjustedScores []fairness.ScoreRecord `json:"adjustedScores"`
	Count          int                    `json:"count"`
}
