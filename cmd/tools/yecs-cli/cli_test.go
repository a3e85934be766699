// cmd/tools/yecs-cli/cli_test.go
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yecs-workers/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const maximalProfile = `
business:
  business_plan_quality: 1.0
  revenue_projection: 100000
  industry_average_revenue: 100000
  years_of_experience: 10
  market_analysis_score: 1.0
financial:
  monthly_income: 5000
  monthly_expenses: 0
  savings_amount: 15000
  debt_amount: 0
  overdraft_score: 1.0
  utility_payment_score: 1.0
  rent_payment_score: 1.0
  student_loan_payment_score: 1.0
  subscription_payment_score: 1.0
  tax_filing_score: 1.0
credit:
  traditional_credit_score: 850
  credit_utilization: 0.05
  recent_credit_inquiries: 0
education:
  education_level: PhD
  industry_experience_years: 20
  professional_certifications: 6
  entrepreneurship_courses: 8
social:
  identity_verification_score: 1.0
  professional_network_score: 1.0
  online_business_presence: 1.0
  community_involvement_score: 1.0
`

// Scores are JSON to exercise the JSON path of the fixture reader.
const biasedScores = `[
  {"user_id": "u-1", "yecs_score": 800},
  {"user_id": "u-2", "yecs_score": 800},
  {"user_id": "u-3", "yecs_score": 500},
  {"user_id": "u-4", "yecs_score": 500}
]`

const biasedDemographics = `
- user_id: u-1
  attributes: {gender: m}
- user_id: u-2
  attributes: {gender: m}
- user_id: u-3
  attributes: {gender: f}
- user_id: u-4
  attributes: {gender: f}
`

// ==========================
// Tests
// ==========================

func TestScoreCommand(t *testing.T) {
	profile := writeFixture(t, "profile.yaml", maximalProfile)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "score", "--profile", profile)
		require.NoError(t, err)
		assert.Contains(t, out, "YECS score: 850 (LOW risk)")
		assert.Contains(t, out, "payment_history")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "score", "--profile", profile, "-o", "json")
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, float64(850), result["yecs_score"])
		assert.Equal(t, "LOW", result["risk_level"])
	})
}

func TestScoreCommand_Errors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectedErr string
	}{
		{"missing flag", []string{"score"}, `required flag(s) "profile" not set`},
		{"missing file", []string{"score", "--profile", "/nonexistent/profile.yaml"}, "open fixture"},
		{"bad output", []string{"score", "--profile", "x", "-o", "xml"}, `unsupported output format "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestAuditCommand(t *testing.T) {
	scores := writeFixture(t, "scores.json", biasedScores)
	demographics := writeFixture(t, "demographics.yaml", biasedDemographics)

	out, err := execute(t, "audit", "--scores", scores, "--demographics", demographics)
	require.NoError(t, err)
	assert.Contains(t, out, "BIAS DETECTED")

	out, err = execute(t, "audit", "--scores", scores, "--demographics", demographics, "-o", "json")
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, true, report["bias_detected"])

	_, err = execute(t, "audit", "--scores", scores, "--demographics", demographics, "--fail-on-bias")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bias detected in 2 group(s)")
}

func TestAuditCommand_EmptyFixture(t *testing.T) {
	scores := writeFixture(t, "scores.yaml", "")
	demographics := writeFixture(t, "demographics.yaml", biasedDemographics)

	_, err := execute(t, "audit", "--scores", scores, "--demographics", demographics)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestMitigateCommand(t *testing.T) {
	scores := writeFixture(t, "scores.json", biasedScores)
	demographics := writeFixture(t, "demographics.yaml", biasedDemographics)

	out, err := execute(t, "mitigate", "--scores", scores, "--demographics", demographics)
	require.NoError(t, err)
	assert.Contains(t, out, "Method: equalized_odds")
	assert.Contains(t, out, "785.00")
	assert.Contains(t, out, "515.00")

	out, err = execute(t, "mitigate", "--method", "demographic_parity",
		"--scores", scores, "--demographics", demographics, "-o", "json")
	require.NoError(t, err)
	var adjusted []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &adjusted))
	require.Len(t, adjusted, 4)
	assert.Equal(t, float64(520), adjusted[2]["yecs_score"])

	_, err = execute(t, "mitigate", "--method", "reweighing", "--scores", scores, "--demographics", demographics)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bias mitigation method")
}

func TestFairnessCommand(t *testing.T) {
	predictions := writeFixture(t, "predictions.json", `[
  {"user_id": "u-1", "yecs_score": 700},
  {"user_id": "u-2", "yecs_score": 600}
]`)
	outcomes := writeFixture(t, "outcomes.yaml", `
- user_id: u-1
  actual_approval: true
- user_id: u-2
  actual_approval: null
`)
	demographics := writeFixture(t, "demographics.yaml", `
- user_id: u-1
  attributes: {age: young}
- user_id: u-2
  attributes: {age: young}
`)

	out, err := execute(t, "fairness", "--predictions", predictions, "--outcomes", outcomes, "--demographics", demographics)
	require.NoError(t, err)
	assert.Contains(t, out, "approved 1/2 (50.0%), average score 650.00")
	assert.Contains(t, out, "TPR 1.000, FPR 0.000")

	out, err = execute(t, "fairness", "--predictions", predictions, "--demographics", demographics)
	require.NoError(t, err)
	assert.Contains(t, out, "No records joined")
}

func TestRegistryCommands(t *testing.T) {
	out, err := execute(t, "registry", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Registry validation passed. Found 5 activities.")

	out, err = execute(t, "registry", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "detect-score-bias")
	assert.Contains(t, out, "yecs.score.calculate")
}

func TestRegistryUpdate(t *testing.T) {
	reg := registry.MustDefault()
	data, err := json.Marshal(reg)
	require.NoError(t, err)
	path := writeFixture(t, "activities.json", string(data))

	out, err := execute(t, "registry", "update", "--path", path,
		"--id", "yecs.fairness.mitigate", "--field", "retries", "--value", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated activity yecs.fairness.mitigate")

	updated, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	a, ok := updated.Lookup("mitigate-score-bias")
	require.True(t, ok)
	assert.Equal(t, 2, a.Retries)

	tests := []struct {
		name        string
		args        []string
		expectedErr string
	}{
		{"embedded registry", []string{"registry", "update", "--id", "x", "--field", "status", "--value", "done"}, "read-only"},
		{"unknown id", []string{"registry", "update", "--path", path, "--id", "nope", "--field", "status", "--value", "done"}, "not found"},
		{"unknown field", []string{"registry", "update", "--path", path, "--id", "yecs.fairness.mitigate", "--field", "owner", "--value", "x"}, "unknown field"},
		{"invalid result", []string{"registry", "update", "--path", path, "--id", "yecs.fairness.mitigate", "--field", "timeout", "--value", "soon"}, "invalid timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}
