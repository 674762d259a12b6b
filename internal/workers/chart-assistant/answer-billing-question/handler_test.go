package answerbillingquestion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-chart-workers/internal/chart/conversation"
	"billing-chart-workers/internal/chart/oracle"
	apperrors "billing-chart-workers/internal/common/errors"
	"billing-chart-workers/internal/models"
)

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

type memoryStore struct {
	records []models.Record
	err     error
}

func (s *memoryStore) FetchAllRecords(ctx context.Context) ([]models.Record, error) {
	return s.records, s.err
}

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, RecentRecords: 5}
}

func testRecords() []models.Record {
	return []models.Record{
		{"PatientID": 1, "AdmissionDate": "2024-03-01", "TotalCharges": 100.0, "PaymentStatus": "Paid", "RunningBalance": 0.0},
		{"PatientID": 2, "AdmissionDate": "2024-02-01", "TotalCharges": 250.0, "PaymentStatus": "Overdue", "RunningBalance": 250.0},
	}
}

func TestExecute(t *testing.T) {
	var prompt string
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "  One account is overdue with $250 outstanding.  ", nil
	})
	h := NewHandler(createTestConfig(), &memoryStore{records: testRecords()}, conversation.NewResponder(o), &TestLogger{t: t})

	out, err := h.Execute(context.Background(), &Input{
		Message: "Which accounts are overdue?",
		History: []conversation.Turn{{Role: conversation.RoleAssistant, Content: "Hello!"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "One account is overdue with $250 outstanding.", out.Answer)
	assert.False(t, out.Degraded)
	assert.Equal(t, 2, out.RecordCount)
	assert.Contains(t, prompt, "Assistant: Hello!")
	assert.Contains(t, prompt, "User Question: Which accounts are overdue?")
}

func TestExecuteWithoutRecordsIsDegraded(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		return "A deductible is what you pay before coverage starts.", nil
	})
	h := NewHandler(createTestConfig(), &memoryStore{err: errors.New("db down")}, conversation.NewResponder(o), &TestLogger{t: t})

	out, err := h.Execute(context.Background(), &Input{Message: "What is a deductible?"})
	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Equal(t, 0, out.RecordCount)
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		oracleErr error
		wantCode  apperrors.ErrorCode
	}{
		{"empty message", "  ", nil, apperrors.ErrCodeInvalidInput},
		{"rate limited", "balance?", oracle.ErrRateLimited, apperrors.ErrCodeOracleRateLimited},
		{"timeout", "balance?", fmt.Errorf("%w: slow upstream", oracle.ErrTimeout), apperrors.ErrCodeOracleTimeout},
		{"unavailable", "balance?", errors.New("status 502"), apperrors.ErrCodeOracleUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := oracle.Func(func(ctx context.Context, p string) (string, error) {
				return "", tt.oracleErr
			})
			h := NewHandler(createTestConfig(), &memoryStore{records: testRecords()}, conversation.NewResponder(o), &TestLogger{t: t})

			_, err := h.Execute(context.Background(), &Input{Message: tt.message})
			require.Error(t, err)
			stdErr := toStandardError(err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}

func TestOracleFailuresAreRetried(t *testing.T) {
	bpmn := apperrors.ConvertToBPMNError(toStandardError(fmt.Errorf("%w: %w", ErrAnswerFailed, errors.New("502"))))
	assert.Equal(t, "ORACLE_UNAVAILABLE", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
}
