// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_Is(t *testing.T) {
	err := fmt.Errorf("save: %w", NewScorePersistFailedError("u-1", stderrors.New("deadlock")))

	assert.True(t, stderrors.Is(err, ErrScorePersistFailed))
	assert.False(t, stderrors.Is(err, ErrScoreQueryFailed))
	assert.Contains(t, err.Error(), "userId: u-1, error: deadlock")
}

func TestNormalize(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewInvalidArgumentError("mitigation method", "bad"))
	assert.Equal(t, ErrCodeInvalidArgument, Normalize(wrapped).Code)

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{"persist failure retries", NewScorePersistFailedError("u", stderrors.New("x")), "SCORE_PERSIST_FAILED", 3},
		{"query failure retries", NewScoreQueryFailedError("history", stderrors.New("x")), "SCORE_QUERY_FAILED", 3},
		{"archive failure retries", NewAuditArchiveFailedError("a", stderrors.New("x")), "AUDIT_ARCHIVE_FAILED", 3},
		{"broker unavailable retries", NewBrokerUnavailableError("topology", stderrors.New("x")), "BROKER_UNAVAILABLE", 3},
		{"alert failure retries once", NewBiasAlertFailedError("sns", stderrors.New("x")), "BIAS_ALERT_FAILED", 1},
		{"invalid argument is thrown", NewInvalidArgumentError("method", "x"), "INVALID_ARGUMENT", 0},
		{"validation failure is thrown", NewInputValidationFailedError("t", []string{"a"}), "INPUT_VALIDATION_FAILED", 0},
		{"internal error is thrown", NewInternalError(stderrors.New("x")), "INTERNAL_ERROR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)

			vars := bpmnErr.ToErrorVariables()
			assert.Equal(t, tt.expectedCode, vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_NonRetryableOverride(t *testing.T) {
	err := NewScoreQueryFailedError("latest", stderrors.New("syntax error"))
	err.Retryable = false

	assert.Equal(t, 0, ConvertToBPMNError(err).Retries)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeScorePersistFailed:    "DATABASE",
		ErrCodeScoreQueryFailed:      "DATABASE",
		ErrCodeAuditArchiveFailed:    "SEARCH",
		ErrCodeBiasAlertFailed:       "NOTIFICATION",
		ErrCodeBiasAnalysisFailed:    "FAIRNESS",
		ErrCodeInvalidArgument:       "VALIDATION",
		ErrCodeInputValidationFailed: "VALIDATION",
		ErrCodeBrokerUnavailable:     "WORKFLOW",
		ErrCodeInternal:              "OTHER",
	}
	for code, category := range tests {
		assert.Equal(t, category, GetErrorCategory(code), string(code))
	}
}

func TestInputValidationFailedError_Metadata(t *testing.T) {
	err := NewInputValidationFailedError("get-score-history", []string{"a: bad", "b: bad"})

	require.NotNil(t, err.Metadata)
	assert.Equal(t, []string{"a: bad", "b: bad"}, err.Metadata["violations"])
	assert.Equal(t, "taskType: get-score-history, violations: a: bad; b: bad", err.Details)
	assert.False(t, IsRetryableErrorCode(err.Code))
}
