// internal/common/database/scores.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

const (
	insertScoreQuery = `
		INSERT INTO yecs_scores (user_id, score, risk_level, weighted_percentage, components)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	scoreHistoryQuery = `
		SELECT id, user_id, score, risk_level, weighted_percentage, components, created_at
		FROM yecs_scores
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	latestScoresQuery = `
		SELECT DISTINCT ON (user_id) id, user_id, score, risk_level, weighted_percentage, components, created_at
		FROM yecs_scores
		ORDER BY user_id, created_at DESC, id DESC`

	demographicsQuery = `
		SELECT user_id, attribute, value
		FROM user_demographics
		WHERE attribute = ANY($1)
		ORDER BY user_id, attribute`
)

// StoredScore is one persisted YECS score.
type StoredScore struct {
	ID                 int64              `json:"id"`
	UserID             string             `json:"userId"`
	Score              int                `json:"score"`
	RiskLevel          string             `json:"riskLevel"`
	WeightedPercentage float64            `json:"weightedPercentage"`
	Components         map[string]float64 `json:"components"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// DemographicValue is one row of the long-format user_demographics table.
type DemographicValue struct {
	UserID    string
	Attribute string
	Value     string
}

// ScoreRepository reads and writes yecs_scores and user_demographics.
type ScoreRepository struct {
	db *sql.DB
}

func NewScoreRepository(db *sql.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// SaveScore inserts s and fills in its ID and CreatedAt.
func (r *ScoreRepository) SaveScore(ctx context.Context, s *StoredScore) error {
	components, err := json.Marshal(s.Components)
	if err != nil {
		return fmt.Errorf("encode components: %w", err)
	}

	err = r.db.QueryRowContext(ctx, insertScoreQuery,
		s.UserID, s.Score, s.RiskLevel, s.WeightedPercentage, components,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// ScoreHistory returns up to limit scores of userID, newest first. The limit
// is clamped to [1, MaxHistoryLimit] and defaults to DefaultHistoryLimit.
func (r *ScoreRepository) ScoreHistory(ctx context.Context, userID string, limit int) ([]StoredScore, error) {
	rows, err := r.db.QueryContext(ctx, scoreHistoryQuery, userID, ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query score history: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

// LatestScores returns the most recent score of every user, ordered by user id.
func (r *ScoreRepository) LatestScores(ctx context.Context) ([]StoredScore, error) {
	rows, err := r.db.QueryContext(ctx, latestScoresQuery)
	if err != nil {
		return nil, fmt.Errorf("query latest scores: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

// Demographics returns the stored values of the given attributes.
func (r *ScoreRepository) Demographics(ctx context.Context, attributes []string) ([]DemographicValue, error) {
	rows, err := r.db.QueryContext(ctx, demographicsQuery, pq.Array(attributes))
	if err != nil {
		return nil, fmt.Errorf("query demographics: %w", err)
	}
	defer rows.Close()

	var out []DemographicValue
	for rows.Next() {
		var d DemographicValue
		if err := rows.Scan(&d.UserID, &d.Attribute, &d.Value); err != nil {
			return nil, fmt.Errorf("scan demographic: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate demographics: %w", err)
	}
	return out, nil
}

func scanScores(rows *sql.Rows) ([]StoredScore, error) {
	var out []StoredScore
	for rows.Next() {
		var s StoredScore
		var components []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.Score, &s.RiskLevel, &s.WeightedPercentage, &components, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if len(components) > 0 {
			if err := json.Unmarshal(components, &s.Components); err != nil {
				return nil, fmt.Errorf("decode components of score %d: %w", s.ID, err)
			}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return out, nil
}

// ClampHistoryLimit applies the history limit defaults.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
