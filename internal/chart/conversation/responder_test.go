// internal/chart/conversation/responder_test.go
package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-chart-workers/internal/chart/oracle"
	"billing-chart-workers/internal/chart/summary"
	"billing-chart-workers/internal/models"
)

func testSummary(t *testing.T) *summary.BillingSummary {
	s, err := summary.Build([]models.Record{
		{"PatientID": 1, "InsuranceProvider": "Aetna", "Gender": "Female", "ServiceDescription": "MRI",
			"AdmissionDate": "2024-02-01", "TotalCharges": 12500, "AmountPaid": 10000, "RunningBalance": 2500,
			"InsuranceCoveragePercentage": 80, "PaymentStatus": "Partial"},
		{"PatientID": 2, "InsuranceProvider": "Medicare", "Gender": "Male", "ServiceDescription": "X-Ray",
			"AdmissionDate": "2024-01-15", "TotalCharges": 400, "AmountPaid": 0, "RunningBalance": 400,
			"InsuranceCoveragePercentage": 60, "PaymentStatus": "Overdue"},
	}, nil, 10)
	require.NoError(t, err)
	return s
}

func TestAnswer(t *testing.T) {
	var prompt string
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "  Outstanding balances total $2,900.  ", nil
	})

	history := []Turn{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "Hi, how can I help?"},
	}
	ans, err := NewResponder(o).Answer(context.Background(), "How much is outstanding?", history, testSummary(t))
	require.NoError(t, err)

	assert.Equal(t, "Outstanding balances total $2,900.", ans.Text)
	assert.False(t, ans.Degraded)

	assert.Contains(t, prompt, "You are a healthcare billing and insurance AI assistant.")
	assert.Contains(t, prompt, "- Total Revenue: $12,900")
	assert.Contains(t, prompt, "- Total Outstanding: $2,900")
	assert.Contains(t, prompt, "- Date Range: 2024-01-15 to 2024-02-01")
	assert.Contains(t, prompt, "- Aetna: 1 patients")
	assert.Contains(t, prompt, "SAMPLE RECENT RECORDS (Top 2)")
	assert.Contains(t, prompt, "User: hello\nAssistant: Hi, how can I help?")
	assert.True(t, strings.HasSuffix(prompt, "User Question: How much is outstanding?"))
}

func TestAnswerWithoutSummaryIsDegraded(t *testing.T) {
	var prompt string
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "I can't check the figures right now.", nil
	})

	ans, err := NewResponder(o).Answer(context.Background(), "what is a copay?", nil, nil)
	require.NoError(t, err)
	assert.True(t, ans.Degraded)
	assert.Contains(t, prompt, "Billing data is currently unavailable")
	assert.NotContains(t, prompt, "SUMMARY STATISTICS")
}

func TestAnswerErrors(t *testing.T) {
	tests := []struct {
		name     string
		oracle   oracle.Oracle
		question string
		wantErr  error
	}{
		{"empty question", oracle.Func(func(context.Context, string) (string, error) { return "x", nil }), "  ", ErrEmptyQuestion},
		{"no oracle", nil, "hi", oracle.ErrUnavailable},
		{"rate limited", oracle.Func(func(context.Context, string) (string, error) { return "", oracle.ErrRateLimited }), "hi", oracle.ErrRateLimited},
		{"blank reply", oracle.Func(func(context.Context, string) (string, error) { return " \n", nil }), "hi", oracle.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans, err := NewResponder(tt.oracle).Answer(context.Background(), tt.question, nil, nil)
			assert.Nil(t, ans)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildPromptTrimsHistory(t *testing.T) {
	var history []Turn
	for i := 0; i < 15; i++ {
		history = append(history, Turn{Role: RoleUser, Content: fmt.Sprintf("message %02d", i)})
	}

	prompt := BuildPrompt("latest?", history, nil)
	assert.NotContains(t, prompt, "message 04")
	assert.Contains(t, prompt, "message 05")
	assert.Contains(t, prompt, "message 14")
}

func TestBuildPromptLimitsProviders(t *testing.T) {
	s := testSummary(t)
	s.InsuranceProviders = map[string]int{}
	for i := 0; i < 12; i++ {
		s.InsuranceProviders[fmt.Sprintf("Provider %02d", i)] = 100 - i
	}

	prompt := BuildPrompt("q", nil, s)
	assert.Contains(t, prompt, "- Provider 00: 100 patients")
	assert.Contains(t, prompt, "- Provider 09: 91 patients")
	assert.NotContains(t, prompt, "Provider 10")
}
