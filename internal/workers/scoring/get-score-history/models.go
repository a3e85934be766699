// internal/workers/scoring/get-score-history/models.go
package getscorehistory

import "yecs-workers/internal/common/database"

type Input struct {
	UserID     string `json:"userId"`
	Limit      int    `json:"limit,omitempty"`
	LatestOnly bool   `json:"latestOnly,omitempty"`
}

const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

type Output struct {
	UserID string                 `json:"userId"`
	Scores []database.StoredScore `json:"scores"`
	Count  int                    `json:"count"`
	Source string                 `json:"source"`
}
