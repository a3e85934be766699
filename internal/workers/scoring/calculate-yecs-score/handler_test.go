// internal/workers/scoring/calculate-yecs-score/handler_test.go
package calculateyecsscore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yecs-workers/internal/common/config"
	"yecs-workers/internal/common/database"
	apperrors "yecs-workers/internal/common/errors"
	"yecs-workers/internal/common/logger"
	"yecs-workers/internal/common/metrics"
	"yecs-workers/internal/scoring"
	"yecs-workers/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return LoadConfig(config.WorkerConfig{Timeout: 5000}, registry.MustDefault())
}

func createTestHandler(t *testing.T, db *sql.DB, cache *database.ScoreCache) *Handler {
	var scores *database.ScoreRepository
	if db != nil {
		scores = database.NewScoreRepository(db)
	}
	return NewHandler(createTestConfig(), scoring.NewDefaultEngine(), scores, cache, logger.NewTestLogger(t))
}

func createSampleProfile() scoring.ApplicantProfile {
	return scoring.ApplicantProfile{
		Business: scoring.Section{
			"business_plan_quality":    0.8,
			"revenue_projection":       120000,
			"industry_average_revenue": 100000,
			"years_of_experience":      3,
			"market_analysis_score":    0.7,
		},
		Financial: scoring.Section{
			"monthly_income":             4000,
			"monthly_expenses":           2500,
			"savings_amount":             10000,
			"debt_amount":                15000,
			"overdraft_score":            0.8,
			"utility_payment_score":      0.95,
			"rent_payment_score":         0.9,
			"student_loan_payment_score": 0.8,
			"subscription_payment_score": 1.0,
			"tax_filing_score":           0.75,
		},
		Credit: scoring.Section{
			"credit_utilization":      0.25,
			"recent_credit_inquiries": 2,
		},
		Education: scoring.Section{
			"education_level":             "Bachelor's Degree",
			"industry_experience_years":   3,
			"professional_certifications": 2,
			"entrepreneurship_courses":    1,
		},
		Social: scoring.Section{
			"identity_verification_score": 0.9,
			"professional_network_score":  0.7,
			"online_business_presence":    0.6,
			"community_involvement_score": 0.5,
		},
	}
}

func boolPtr(v bool) *bool { return &v }

func expectInsert(mock sqlmock.Sqlmock, id int64, createdAt time.Time) {
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO yecs_scores")).
		WithArgs("user-123", 685, "MEDIUM", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id, createdAt))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_PersistsAndCaches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	createdAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	expectInsert(mock, 11, createdAt)

	handler := createTestHandler(t, db, database.NewScoreCache(redisClient, time.Hour))
	before := testutil.ToFloat64(metrics.ScoresCalculated.WithLabelValues("MEDIUM"))

	output, err := handler.Execute(context.Background(), &Input{UserID: "user-123", Profile: createSampleProfile()})
	require.NoError(t, err)

	assert.Equal(t, 685, output.YECSScore)
	assert.Equal(t, "MEDIUM", output.RiskLevel)
	assert.InDelta(t, 70.1375, output.WeightedPercentage, 1e-6)
	assert.InDelta(t, 73.0, output.ComponentScores.BusinessViability, 1e-9)
	assert.Equal(t, int64(11), output.ScoreID)
	assert.True(t, output.Persisted)
	assert.True(t, output.Cached)
	assert.Equal(t, createdAt, output.CalculatedAt)

	assert.True(t, mr.Exists(database.LatestScoreKey("user-123")))
	assert.Equal(t, time.Hour, mr.TTL(database.LatestScoreKey("user-123")))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ScoresCalculated.WithLabelValues("MEDIUM")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_WithoutPersistence(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		useDB bool
	}{
		{
			name:  "persist disabled by input",
			input: &Input{UserID: "user-123", Profile: createSampleProfile(), Persist: boolPtr(false)},
			useDB: true,
		},
		{
			name:  "no repository configured",
			input: &Input{UserID: "user-123", Profile: createSampleProfile()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var db *sql.DB
			var mock sqlmock.Sqlmock
			if tt.useDB {
				var err error
				db, mock, err = sqlmock.New()
				require.NoError(t, err)
				defer db.Close()
			}

			handler := createTestHandler(t, db, nil)
			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			assert.Equal(t, 685, output.YECSScore)
			assert.False(t, output.Persisted)
			assert.False(t, output.Cached)
			assert.Zero(t, output.ScoreID)
			if mock != nil {
				assert.NoError(t, mock.ExpectationsWereMet())
			}
		})
	}
}

func TestHandler_Execute_EmptyProfile(t *testing.T) {
	handler := createTestHandler(t, nil, nil)

	output, err := handler.Execute(context.Background(), &Input{UserID: "user-9"})

	require.NoError(t, err)
	assert.Equal(t, 436, output.YECSScore)
	assert.Equal(t, "VERY_HIGH", output.RiskLevel)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_PersistFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO yecs_scores")).
		WillReturnError(errors.New("connection reset by peer"))

	handler := createTestHandler(t, db, nil)
	output, err := handler.Execute(context.Background(), &Input{UserID: "user-123", Profile: createSampleProfile()})

	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, apperrors.ErrScorePersistFailed))

	bpmnErr := apperrors.ConvertToBPMNError(apperrors.Normalize(err))
	assert.Equal(t, 3, bpmnErr.Retries)
}

func TestHandler_Execute_CacheFailureIsDegraded(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	expectInsert(mock, 12, time.Now().UTC())

	redisClient, _ := redismock.NewClientMock()

	handler := createTestHandler(t, db, database.NewScoreCache(redisClient, time.Hour))
	output, err := handler.Execute(context.Background(), &Input{UserID: "user-123", Profile: createSampleProfile()})

	require.NoError(t, err)
	assert.True(t, output.Persisted)
	assert.False(t, output.Cached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Configuration Tests
// ==========================

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.WorkerConfig{}, registry.MustDefault())
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, []interface{}{"userId", "profile"}, cfg.InputSchema["required"])

	cfg = createTestConfig()
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}
