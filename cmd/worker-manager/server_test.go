// cmd/worker-manager/server_test.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yecs-workers/internal/common/logger"
)

func okCheck(context.Context) error { return nil }

func TestServer_Health(t *testing.T) {
	srv := newServer(":0", nil, logger.NewTestLogger(t))

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestServer_Ready(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]check
		expectedStatus int
		expectedState  string
		expectedChecks map[string]interface{}
	}{
		{
			name:           "all checks pass",
			checks:         map[string]check{"postgres": okCheck, "redis": okCheck},
			expectedStatus: http.StatusOK,
			expectedState:  "ready",
			expectedChecks: map[string]interface{}{"postgres": "ok", "redis": "ok"},
		},
		{
			name: "one check fails",
			checks: map[string]check{
				"postgres": okCheck,
				"zeebe":    func(context.Context) error { return errors.New("gateway unavailable") },
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "not_ready",
			expectedChecks: map[string]interface{}{"postgres": "ok", "zeebe": "gateway unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(":0", tt.checks, logger.NewTestLogger(t))

			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedState, body["status"])
			assert.Equal(t, tt.expectedChecks, body["checks"])
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	srv := newServer(":0", nil, logger.NewTestLogger(t))

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
