// internal/workers/scoring/calculate-yecs-score/models.go
package calculateyecsscore

import (
	"time"

	"yecs-workers/internal/scoring"
)

type Input struct {
	UserID  string                   `json:"userId"`
	Profile scoring.ApplicantProfile `json:"profile"`
	// Persist defaults to true.
	Persist *bool `json:"persist,omitempty"`
}

func (i *Input) shouldPersist() bool {
	return i.Persist == nil || *i.Persist
}

type Output struct {
	UserID             string                  `json:"userId"`
	YECSScore          int                     `json:"yecsScore"`
	RiskLevel          string                  `json:"riskLevel"`
	WeightedPercentage float64                 `json:"weightedPercentage"`
	ComponentScores    scoring.ComponentScores `json:"componentScores"`
	ScoreID            int64                   `json:"scoreId,omitempty"`
	Persisted          bool                    `json:"persisted"`
	Cached             bool                    `json:"cached"`
	CalculatedAt       time.Time               `json:"calculatedAt"`
}
