// internal/workers/fairness/detect-score-bias/handler_test.go
package detectscorebias

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yecs-workers/internal/common/aws"
	"yecs-workers/internal/common/config"
	"yecs-workers/internal/common/database"
	apperrors "yecs-workers/internal/common/errors"
	"yecs-workers/internal/common/logger"
	"yecs-workers/internal/common/metrics"
	"yecs-workers/internal/fairness"
	"yecs-workers/pkg/registry"
)

// ==========================
// Mock Implementations
// ==========================

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

var auditedAt = time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

type deps struct {
	db        *sql.DB
	archive   *database.ReportArchive
	publisher *MockPublisher
}

func createTestHandler(t *testing.T, d deps) *Handler {
	cfg := LoadConfig(
		config.WorkerConfig{Timeout: 5000},
		config.AuditConfig{Alerts: config.AlertConfig{Enabled: true}},
		registry.MustDefault(),
	)

	var scores *database.ScoreRepository
	if d.db != nil {
		scores = database.NewScoreRepository(d.db)
	}
	var alerter *aws.BiasAlerter
	if d.publisher != nil {
		alerter = aws.NewBiasAlerter(d.publisher, nil, config.AlertConfig{
			Enabled:  true,
			TopicARN: "arn:aws:sns:us-east-1:123456789012:yecs-bias",
		})
	}

	h := NewHandler(cfg, fairness.NewDefaultAuditor(), scores, d.archive, alerter, logger.NewTestLogger(t))
	h.newID = func() string { return "audit-1" }
	h.now = func() time.Time { return auditedAt }
	return h
}

type indexedDocument struct {
	path string
	body map[string]interface{}
}

func createTestArchive(t *testing.T, status int) (*database.ReportArchive, *indexedDocument) {
	t.Helper()
	captured := &indexedDocument{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &captured.body)

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return database.NewReportArchive(client, "yecs-bias-reports"), captured
}

// biasedInput splits gender into two groups whose means sit 23% above and
// below the overall mean of 650.
func biasedInput() *Input {
	return &Input{
		Scores: []fairness.ScoreRecord{
			{UserID: "u-1", Score: 800},
			{UserID: "u-2", Score: 800},
			{UserID: "u-3", Score: 500},
			{UserID: "u-4", Score: 500},
		},
		Demographics: []fairness.DemographicRecord{
			{UserID: "u-1", Attributes: map[string]string{"gender": "m"}},
			{UserID: "u-2", Attributes: map[string]string{"gender": "m"}},
			{UserID: "u-3", Attributes: map[string]string{"gender": "f"}},
			{UserID: "u-4", Attributes: map[string]string{"gender": "f"}},
		},
	}
}

func balancedInput() *Input {
	return &Input{
		Scores: []fairness.ScoreRecord{
			{UserID: "u-1", Score: 700},
			{UserID: "u-2", Score: 700},
		},
		Demographics: []fairness.DemographicRecord{
			{UserID: "u-1", Attributes: map[string]string{"gender": "m"}},
			{UserID: "u-2", Attributes: map[string]string{"gender": "f"}},
		},
	}
}

func boolPtr(v bool) *bool { return &v }

// ==========================
// Tests
// ==========================

func TestHandler_Execute_BiasDetected(t *testing.T) {
	archive, captured := createTestArchive(t, http.StatusCreated)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return *in.Subject == "YECS bias detected in audit audit-1"
	})).Return(&sns.PublishOutput{MessageId: strPtr("msg-1")}, nil).Once()

	before := testutil.ToFloat64(metrics.BiasAudits.WithLabelValues("true"))

	handler := createTestHandler(t, deps{archive: archive, publisher: publisher})
	output, err := handler.Execute(context.Background(), biasedInput())

	require.NoError(t, err)
	assert.Equal(t, "audit-1", output.AuditID)
	assert.Equal(t, SourceInput, output.Source)
	assert.Equal(t, 4, output.RecordsAnalyzed)
	assert.True(t, output.BiasDetected)
	assert.Equal(t, 2, output.FlaggedGroupCount)
	assert.Equal(t, map[string][]string{"gender": {"m", "f"}}, output.FlaggedGroups)
	assert.Contains(t, output.Report, "BIAS DETECTED")
	assert.Equal(t, auditedAt, output.AuditedAt)

	assert.True(t, output.Archived)
	assert.Empty(t, output.ArchiveError)
	assert.Equal(t, "/yecs-bias-reports/_doc/audit-1", captured.path)
	assert.Equal(t, true, captured.body["biasDetected"])
	assert.Equal(t, "audit-1", captured.body["auditId"])

	assert.Equal(t, []string{aws.ChannelSNS}, output.AlertChannels)
	assert.Empty(t, output.AlertError)
	publisher.AssertExpectations(t)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BiasAudits.WithLabelValues("true")))
}

func TestHandler_Execute_NoBiasSkipsAlert(t *testing.T) {
	publisher := new(MockPublisher)

	handler := createTestHandler(t, deps{publisher: publisher})
	output, err := handler.Execute(context.Background(), balancedInput())

	require.NoError(t, err)
	assert.False(t, output.BiasDetected)
	assert.Zero(t, output.FlaggedGroupCount)
	assert.Empty(t, output.FlaggedGroups)
	assert.False(t, output.Archived)
	assert.Empty(t, output.AlertChannels)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestHandler_Execute_OptOuts(t *testing.T) {
	archive, captured := createTestArchive(t, http.StatusCreated)
	publisher := new(MockPublisher)

	input := biasedInput()
	input.SendAlerts = boolPtr(false)
	input.Archive = boolPtr(false)

	handler := createTestHandler(t, deps{archive: archive, publisher: publisher})
	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, output.BiasDetected)
	assert.False(t, output.Archived)
	assert.Empty(t, captured.path)
	assert.Empty(t, output.AlertChannels)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestHandler_Execute_AlertsDisabledByConfig(t *testing.T) {
	publisher := new(MockPublisher)

	handler := createTestHandler(t, deps{publisher: publisher})
	handler.config.AlertsEnabled = false
	output, err := handler.Execute(context.Background(), biasedInput())

	require.NoError(t, err)
	assert.True(t, output.BiasDetected)
	assert.Empty(t, output.AlertChannels)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestHandler_Execute_DegradedSideEffects(t *testing.T) {
	archive, _ := createTestArchive(t, http.StatusServiceUnavailable)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).
		Return(nil, errors.New("throttled")).Once()

	handler := createTestHandler(t, deps{archive: archive, publisher: publisher})
	output, err := handler.Execute(context.Background(), biasedInput())

	require.NoError(t, err)
	assert.True(t, output.BiasDetected)

	assert.False(t, output.Archived)
	assert.Contains(t, output.ArchiveError, string(apperrors.ErrCodeAuditArchiveFailed))
	assert.Contains(t, output.ArchiveError, "auditId: audit-1")

	assert.Empty(t, output.AlertChannels)
	assert.Contains(t, output.AlertError, string(apperrors.ErrCodeBiasAlertFailed))
	assert.Contains(t, output.AlertError, "throttled")
	publisher.AssertExpectations(t)
}

func TestHandler_Execute_CountsJoinedRows(t *testing.T) {
	input := balancedInput()
	input.Scores = append(input.Scores,
		fairness.ScoreRecord{UserID: "u-9", Score: 400},
		fairness.ScoreRecord{UserID: "u-1", Score: 700},
	)

	handler := createTestHandler(t, deps{})
	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, 3, output.RecordsAnalyzed)
	assert.Equal(t, 3, output.Analysis.JoinedRows)
	assert.False(t, output.BiasDetected)
}

func TestHandler_Execute_StoredData(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlMock.MatchExpectationsInOrder(false)

	now := time.Now().UTC()
	sqlMock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT ON (user_id)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "score", "risk_level", "weighted_percentage", "components", "created_at"}).
			AddRow(int64(1), "u-1", 800, "LOW", 90.9, nil, now).
			AddRow(int64(2), "u-2", 800, "LOW", 90.9, nil, now).
			AddRow(int64(3), "u-3", 500, "HIGH", 36.4, nil, now).
			AddRow(int64(4), "u-4", 500, "HIGH", 36.4, nil, now))
	sqlMock.ExpectQuery(regexp.QuoteMeta("FROM user_demographics")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "attribute", "value"}).
			AddRow("u-1", "gender", "m").
			AddRow("u-2", "gender", "m").
			AddRow("u-3", "gender", "f").
			AddRow("u-3", "age", "young").
			AddRow("u-4", "gender", "f"))

	handler := createTestHandler(t, deps{db: db})
	output, err := handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, output.Source)
	assert.Equal(t, 4, output.RecordsAnalyzed)
	assert.True(t, output.BiasDetected)
	assert.Equal(t, []string{"m", "f"}, output.FlaggedGroups["gender"])

	// u-3 is the only age carrier; its 500 sits below the mean of all four rows.
	_, hasAge := output.Analysis.Attribute("age")
	assert.True(t, hasAge)
	assert.Equal(t, []string{"young"}, output.FlaggedGroups["age"])
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestHandler_Execute_StoredDataErrors(t *testing.T) {
	t.Run("no store configured", func(t *testing.T) {
		handler := createTestHandler(t, deps{})
		output, err := handler.Execute(context.Background(), &Input{})

		require.Error(t, err)
		assert.Nil(t, output)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
	})

	t.Run("query failure", func(t *testing.T) {
		db, sqlMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		sqlMock.MatchExpectationsInOrder(false)

		sqlMock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT ON (user_id)")).
			WillReturnError(errors.New("connection reset"))
		sqlMock.ExpectQuery(regexp.QuoteMeta("FROM user_demographics")).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "attribute", "value"}))

		handler := createTestHandler(t, deps{db: db})
		output, err := handler.Execute(context.Background(), &Input{})

		require.Error(t, err)
		assert.Nil(t, output)
		assert.True(t, errors.Is(err, apperrors.ErrScoreQueryFailed))
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestHandler_Execute_InvalidRecords(t *testing.T) {
	input := &Input{
		Scores: []fairness.ScoreRecord{{UserID: "u-1", Score: 700}},
		Demographics: []fairness.DemographicRecord{
			{UserID: "u-1", Attributes: map[string]string{"gender": "m"}},
			{UserID: "u-1", Attributes: map[string]string{"gender": "f"}},
		},
	}

	handler := createTestHandler(t, deps{})
	output, err := handler.Execute(context.Background(), input)

	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestToDemographicRecords(t *testing.T) {
	records := toDemographicRecords([]database.DemographicValue{
		{UserID: "u-2", Attribute: "age", Value: "old"},
		{UserID: "u-1", Attribute: "age", Value: "young"},
		{UserID: "u-2", Attribute: "gender", Value: "f"},
	})

	require.Len(t, records, 2)
	assert.Equal(t, "u-2", records[0].UserID)
	assert.Equal(t, map[string]string{"age": "old", "gender": "f"}, records[0].Attributes)
	assert.Equal(t, "u-1", records[1].UserID)
}

// ==========================
// Configuration Tests
// ==========================

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.WorkerConfig{}, config.AuditConfig{}, registry.MustDefault())
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.False(t, cfg.AlertsEnabled)
	assert.NotNil(t, cfg.InputSchema["properties"])
}

func strPtr(s string) *string { return &s }
