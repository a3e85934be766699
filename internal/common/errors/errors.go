// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidArgument       ErrorCode = "INVALID_ARGUMENT"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	ErrCodeBiasAnalysisFailed ErrorCode = "BIAS_ANALYSIS_FAILED"

	ErrCodeScorePersistFailed ErrorCode = "SCORE_PERSIST_FAILED"
	ErrCodeScoreQueryFailed   ErrorCode = "SCORE_QUERY_FAILED"

	ErrCodeAuditArchiveFailed ErrorCode = "AUDIT_ARCHIVE_FAILED"
	ErrCodeBiasAlertFailed    ErrorCode = "BIAS_ALERT_FAILED"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks. A StandardError matches the sentinel with
// the same code.
var (
	ErrInvalidArgument       = &StandardError{Code: ErrCodeInvalidArgument}
	ErrInputValidationFailed = &StandardError{Code: ErrCodeInputValidationFailed}
	ErrBiasAnalysisFailed    = &StandardError{Code: ErrCodeBiasAnalysisFailed}
	ErrScorePersistFailed    = &StandardError{Code: ErrCodeScorePersistFailed}
	ErrScoreQueryFailed      = &StandardError{Code: ErrCodeScoreQueryFailed}
	ErrAuditArchiveFailed    = &StandardError{Code: ErrCodeAuditArchiveFailed}
	ErrBiasAlertFailed       = &StandardError{Code: ErrCodeBiasAlertFailed}
	ErrBrokerUnavailable     = &StandardError{Code: ErrCodeBrokerUnavailable}
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is reports whether target is a StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidArgumentError creates a non-retryable error for a malformed
// argument such as an unknown mitigation method or a bad scoring policy.
func NewInvalidArgumentError(subject, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidArgument,
		Message:   fmt.Sprintf("Invalid %s", subject),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputValidationFailedError creates a non-retryable error for job
// variables that do not match the registered input schema.
func NewInputValidationFailedError(taskType string, violations []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidationFailed,
		Message:   "Job input failed schema validation",
		Details:   fmt.Sprintf("taskType: %s, violations: %s", taskType, strings.Join(violations, "; ")),
		Retryable: false,
		Metadata:  map[string]interface{}{"violations": violations},
		Timestamp: time.Now().UTC(),
	}
}

// NewBiasAnalysisFailedError describes a failure confined to one protected
// attribute. It is recorded on the analysis, not returned to callers.
func NewBiasAnalysisFailedError(attribute, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBiasAnalysisFailed,
		Message:   fmt.Sprintf("Bias analysis failed for attribute '%s'", attribute),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScorePersistFailedError creates a retryable database write error.
func NewScorePersistFailedError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScorePersistFailed,
		Message:   "Failed to persist YECS score",
		Details:   fmt.Sprintf("userId: %s, error: %s", userID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewScoreQueryFailedError creates a retryable database read error.
func NewScoreQueryFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoreQueryFailed,
		Message:   "Score query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditArchiveFailedError creates a retryable Elasticsearch indexing error.
func NewAuditArchiveFailedError(auditID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditArchiveFailed,
		Message:   "Failed to archive bias report",
		Details:   fmt.Sprintf("auditId: %s, error: %s", auditID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBiasAlertFailedError creates a retryable notification error.
func NewBiasAlertFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBiasAlertFailed,
		Message:   "Bias alert delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerUnavailableError creates a retryable error for a Zeebe gateway
// that could not be reached or timed out.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerUnavailable,
		Message:   "Workflow broker unavailable",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidArgument:       "INVALID_ARGUMENT",
	ErrCodeInputValidationFailed: "INPUT_VALIDATION_FAILED",
	ErrCodeBiasAnalysisFailed:    "BIAS_ANALYSIS_FAILED",
	ErrCodeScorePersistFailed:    "SCORE_PERSIST_FAILED",
	ErrCodeScoreQueryFailed:      "SCORE_QUERY_FAILED",
	ErrCodeAuditArchiveFailed:    "AUDIT_ARCHIVE_FAILED",
	ErrCodeBiasAlertFailed:       "BIAS_ALERT_FAILED",
	ErrCodeBrokerUnavailable:     "BROKER_UNAVAILABLE",
	ErrCodeInternal:              "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeScorePersistFailed,
		ErrCodeScoreQueryFailed,
		ErrCodeAuditArchiveFailed,
		ErrCodeBrokerUnavailable:
		return 3

	case ErrCodeBiasAlertFailed:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SCORE"):
		return "DATABASE"
	case strings.Contains(codeStr, "ARCHIVE"):
		return "SEARCH"
	case strings.Contains(codeStr, "BROKER"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "ALERT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "BIAS"):
		return "FAIRNESS"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
