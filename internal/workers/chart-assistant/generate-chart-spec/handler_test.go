package generatechartspec

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/chart/generator"
	"billing-chart-workers/internal/chart/oracle"
	"billing-chart-workers/internal/chart/validate"
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
	return &Config{Timeout: 5 * time.Second, SampleSize: 2}
}

func newTestHandler(t *testing.T, o oracle.Oracle, store *memoryStore) *Handler {
	log := &TestLogger{t: t}
	gen := generator.New(o, catalog.Default(), generator.Config{}, log)
	return NewHandler(createTestConfig(), store, gen, log)
}

const oracleSpec = `{
  "chartType": "pie",
  "title": "Revenue by Payment Status",
  "dataField": "TotalCharges",
  "aggregation": "sum",
  "groupBy": "PaymentStatus",
  "insights": "Shows how billed revenue splits across paid, pending and overdue accounts."
}`

func testRecords() []models.Record {
	return []models.Record{
		{"PatientID": 1, "TotalCharges": 100, "PaymentStatus": "Paid"},
		{"PatientID": 2, "TotalCharges": 250, "PaymentStatus": "Pending"},
		{"PatientID": 3, "TotalCharges": 50, "PaymentStatus": "Overdue"},
	}
}

// ==========================
// Execute
// ==========================

func TestExecuteOracleSpec(t *testing.T) {
	var prompt string
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return oracleSpec, nil
	})
	h := newTestHandler(t, o, &memoryStore{records: testRecords()})

	out, err := h.Execute(context.Background(), &Input{Message: "Create a pie chart of revenue by payment status"})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(out.SpecID)
	assert.NoError(t, parseErr)
	assert.Equal(t, generator.SourceOracle, out.Source)
	assert.False(t, out.HasChartError)
	require.NotNil(t, out.ChartSpec)
	assert.Equal(t, models.ChartTypePie, out.ChartSpec.ChartType)
	assert.Equal(t, models.FieldPaymentStatus, out.ChartSpec.GroupBy)

	// only the configured sample size grounds the prompt
	assert.Contains(t, prompt, `"PatientID": 2`)
	assert.False(t, strings.Contains(prompt, `"PatientID": 3`))
}

func TestExecuteFallsBackWhenOracleFails(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		return "", oracle.ErrUnavailable
	})
	h := newTestHandler(t, o, &memoryStore{err: errors.New("connection refused")})

	out, err := h.Execute(context.Background(), &Input{Message: "create a bar chart of revenue by insurance provider"})
	require.NoError(t, err)

	assert.Equal(t, generator.SourceFallback, out.Source)
	assert.Equal(t, generator.ReasonUnavailable, out.FallbackReason)
	require.NotNil(t, out.ChartSpec)
	assert.Equal(t, models.FieldTotalCharges, out.ChartSpec.DataField)
}

func TestExecuteReturnsChartError(t *testing.T) {
	h := newTestHandler(t, nil, &memoryStore{records: testRecords()})

	out, err := h.Execute(context.Background(), &Input{Message: "create a bar chart of the average number of patients by insurer"})
	require.NoError(t, err)

	assert.True(t, out.HasChartError)
	assert.Nil(t, out.ChartSpec)
	require.NotNil(t, out.ChartError)
	assert.Equal(t, validate.CodeUnsupportedAggregation, out.ChartError.Code)
	assert.NotEmpty(t, out.SpecID)
}

func TestExecuteInvalidInput(t *testing.T) {
	h := newTestHandler(t, nil, &memoryStore{})

	_, err := h.Execute(context.Background(), &Input{Message: ""})
	assert.ErrorIs(t, err, ErrMissingMessage)

	_, err = h.Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestExecuteCancelled(t *testing.T) {
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	h := newTestHandler(t, o, &memoryStore{records: testRecords()})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := h.Execute(ctx, &Input{Message: "create a revenue trend chart"})
	assert.ErrorIs(t, err, ErrGenerationTimeout)
}
