// internal/workers/fairness/mitigate-score-bias/handler_test.go
package mitigatescorebias

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yecs-workers/internal/common/config"
	apperrors "yecs-workers/internal/common/errors"
	"yecs-workers/internal/common/logger"
	"yecs-workers/internal/common/metrics"
	"yecs-workers/internal/fairness"
	"yecs-workers/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T) *Handler {
	cfg := LoadConfig(config.WorkerConfig{Timeout: 5000}, registry.MustDefault())
	return NewHandler(cfg, fairness.NewDefaultAuditor(), logger.NewTestLogger(t))
}

func createTestInput(method string) *Input {
	return &Input{
		Scores: []fairness.ScoreRecord{
			{UserID: "u-1", Score: 800},
			{UserID: "u-2", Score: 800},
			{UserID: "u-3", Score: 500},
			{UserID: "u-4", Score: 500},
			{UserID: "u-5", Score: 640},
		},
		Demographics: []fairness.DemographicRecord{
			{UserID: "u-1", Attributes: map[string]string{"gender": "m"}},
			{UserID: "u-2", Attributes: map[string]string{"gender": "m"}},
			{UserID: "u-3", Attributes: map[string]string{"gender": "f"}},
			{UserID: "u-4", Attributes: map[string]string{"gender": "f"}},
		},
		Method: method,
	}
}

// ==========================
// Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		expected []float64
	}{
		{
			name:     "equalized odds pulls groups toward the mean",
			method:   "equalized_odds",
			expected: []float64{785, 785, 515, 515},
		},
		{
			name:     "demographic parity boosts the under-approved group",
			method:   "demographic_parity",
			expected: []float64{800, 800, 520, 520},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.Mitigations.WithLabelValues(tt.method))

			output, err := createTestHandler(t).Execute(context.Background(), createTestInput(tt.method))

			require.NoError(t, err)
			assert.Equal(t, fairness.Method(tt.method), output.Method)
			require.Equal(t, 4, output.Count)
			for i, want := range tt.expected {
				assert.InDelta(t, want, output.AdjustedScores[i].Score, 1e-9)
			}
			assert.Equal(t, "u-1", output.AdjustedScores[0].UserID)
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.Mitigations.WithLabelValues(tt.method)))
		})
	}
}

func TestHandler_Execute_UnknownMethod(t *testing.T) {
	output, err := createTestHandler(t).Execute(context.Background(), createTestInput("reweighing"))

	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "reweighing")

	bpmnErr := apperrors.ConvertToBPMNError(apperrors.Normalize(err))
	assert.Equal(t, 0, bpmnErr.Retries)
}

func TestHandler_Execute_DuplicateDemographics(t *testing.T) {
	input := createTestInput("equalized_odds")
	input.Demographics = append(input.Demographics, fairness.DemographicRecord{
		UserID: "u-1", Attributes: map[string]string{"gender": "f"},
	})

	_, err := createTestHandler(t).Execute(context.Background(), input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestHandler_Execute_NoMatches(t *testing.T) {
	input := createTestInput("demographic_parity")
	input.Demographics = []fairness.DemographicRecord{}

	output, err := createTestHandler(t).Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Zero(t, output.Count)
	assert.Empty(t, output.AdjustedScores)
}

// ==========================
// Configuration Tests
// ==========================

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.WorkerConfig{}, registry.MustDefault())
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, []interface{}{"scores", "demographics", "method"}, cfg.InputSchema["required"])
}
