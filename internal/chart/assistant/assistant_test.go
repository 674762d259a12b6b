// internal/chart/assistant/assistant_test.go
package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-chart-workers/internal/chart/aggregate"
	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/chart/conversation"
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

type memoryStore struct {
	records []models.Record
	err     error
}

func (s *memoryStore) FetchAllRecords(ctx context.Context) ([]models.Record, error) {
	return s.records, s.err
}

func testRecords() []models.Record {
	return []models.Record{
		{"PatientID": 1, "AdmissionDate": "2024-03-01", "TotalCharges": 100, "PaymentStatus": "Paid", "RunningBalance": 0},
		{"PatientID": 2, "AdmissionDate": "2024-02-01", "TotalCharges": 250, "PaymentStatus": "Pending", "RunningBalance": 250},
		{"PatientID": 3, "AdmissionDate": "2024-01-01", "TotalCharges": 50, "PaymentStatus": "Paid", "RunningBalance": 0},
	}
}

// newAssistant wires a real generator whose oracle always fails, so chart
// requests take the fallback path; conversation uses answerOracle.
func newAssistant(t *testing.T, store *memoryStore, answerOracle oracle.Oracle) *Assistant {
	c := catalog.Default()
	failing := oracle.Func(func(ctx context.Context, prompt string) (string, error) {
		return "", oracle.ErrUnavailable
	})
	log := &TestLogger{t: t}
	gen := generator.New(failing, c, generator.Config{}, log)
	return New(store, gen, conversation.NewResponder(answerOracle), c, Config{}, log)
}

func TestRespondChart(t *testing.T) {
	a := newAssistant(t, &memoryStore{records: testRecords()}, nil)

	resp, err := a.Respond(context.Background(), Request{Message: "Create a pie chart of revenue by payment status"})
	require.NoError(t, err)

	assert.Equal(t, KindChart, resp.Kind)
	assert.Equal(t, "create_prefix", resp.MatchedRule)
	assert.Equal(t, generator.SourceFallback, resp.Source)
	assert.Equal(t, generator.ReasonUnavailable, resp.FallbackReason)
	assert.Nil(t, resp.ChartError)
	require.NotNil(t, resp.Chart)

	assert.Equal(t, models.ChartTypePie, resp.Chart.ChartType)
	require.Len(t, resp.Chart.Series.Points, 2)
	assert.Equal(t, "Pending", resp.Chart.Series.Points[0].Label)
	assert.Equal(t, 250.0, resp.Chart.Series.Points[0].Value)
	assert.Equal(t, "Paid", resp.Chart.Series.Points[1].Label)
	assert.Equal(t, 150.0, resp.Chart.Series.Points[1].Value)
	assert.Equal(t, resp.Chart.Insights, resp.Text)
}

func TestChartBypassesClassifier(t *testing.T) {
	a := newAssistant(t, &memoryStore{records: testRecords()}, nil)

	resp, err := a.Chart(context.Background(), "revenue by payment status")
	require.NoError(t, err)

	assert.Equal(t, KindChart, resp.Kind)
	assert.Equal(t, "conversational", resp.MatchedRule)
	require.NotNil(t, resp.Chart)
	assert.Equal(t, 400.0, aggregate.Total(&resp.Chart.Series))
}

func TestRespondChartError(t *testing.T) {
	a := newAssistant(t, &memoryStore{records: testRecords()}, nil)

	resp, err := a.Respond(context.Background(), Request{Message: "create a bar chart of the average number of patients by insurer"})
	require.NoError(t, err)

	assert.Equal(t, KindChart, resp.Kind)
	assert.Nil(t, resp.Chart)
	require.NotNil(t, resp.ChartError)
	assert.Equal(t, validate.CodeUnsupportedAggregation, resp.ChartError.Code)
	assert.NotEmpty(t, resp.ChartError.Suggestions)
	assert.Equal(t, resp.ChartError.Message, resp.Text)
}

func TestRespondChartWithoutData(t *testing.T) {
	tests := []struct {
		name  string
		store *memoryStore
	}{
		{"empty store", &memoryStore{}},
		{"store failure", &memoryStore{err: errors.New("db down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAssistant(t, tt.store, nil)
			resp, err := a.Respond(context.Background(), Request{Message: "create a revenue trend chart"})
			require.NoError(t, err)
			require.NotNil(t, resp.ChartError)
			assert.Equal(t, CodeNoData, resp.ChartError.Code)
			assert.NotNil(t, resp.ChartSpec)
		})
	}
}

func TestRespondConversation(t *testing.T) {
	var prompt string
	answer := oracle.Func(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "Patients owe $250 in total.", nil
	})
	a := newAssistant(t, &memoryStore{records: testRecords()}, answer)

	resp, err := a.Respond(context.Background(), Request{
		Message: "How much do patients owe?",
		History: []conversation.Turn{{Role: conversation.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, KindText, resp.Kind)
	assert.Equal(t, "conversational", resp.MatchedRule)
	assert.Equal(t, "Patients owe $250 in total.", resp.Text)
	assert.False(t, resp.Degraded)
	assert.Contains(t, prompt, "- Total Outstanding: $250")
	assert.Contains(t, prompt, "User: hi")
}

func TestRespondConversationDegrades(t *testing.T) {
	t.Run("oracle failure yields apology", func(t *testing.T) {
		failing := oracle.Func(func(ctx context.Context, p string) (string, error) {
			return "", errors.New("upstream 500: internal stack trace")
		})
		a := newAssistant(t, &memoryStore{records: testRecords()}, failing)

		resp, err := a.Respond(context.Background(), Request{Message: "what is my balance?"})
		require.NoError(t, err)
		assert.Equal(t, conversation.Apology, resp.Text)
		assert.True(t, resp.Degraded)
		assert.NotContains(t, resp.Text, "stack trace")
	})

	t.Run("missing records still answers", func(t *testing.T) {
		answer := oracle.Func(func(ctx context.Context, p string) (string, error) {
			return "A copay is a fixed fee.", nil
		})
		a := newAssistant(t, &memoryStore{err: errors.New("db down")}, answer)

		resp, err := a.Respond(context.Background(), Request{Message: "what is a copay?"})
		require.NoError(t, err)
		assert.Equal(t, "A copay is a fixed fee.", resp.Text)
		assert.True(t, resp.Degraded)
	})
}

func TestRespondCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newAssistant(t, &memoryStore{records: testRecords()}, nil)
	resp, err := a.Respond(ctx, Request{Message: "create a pie chart of revenue"})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderChart(t *testing.T) {
	c := catalog.Default()
	v, e := validate.New(c), aggregate.New(c)
	spec := &models.ChartSpec{
		ChartType:   models.ChartTypeBar,
		Title:       "Charges",
		DataField:   models.FieldTotalCharges,
		Aggregation: models.AggregationSum,
		GroupBy:     models.FieldPaymentStatus,
	}

	bundle, chartErr, err := RenderChart(v, e, spec, testRecords())
	require.NoError(t, err)
	assert.Nil(t, chartErr)
	require.NotNil(t, bundle)
	assert.Equal(t, 400.0, aggregate.Total(&bundle.Series))

	_, chartErr, err = RenderChart(v, e, nil, testRecords())
	require.NoError(t, err)
	assert.NotNil(t, chartErr)

	selfGrouped := *spec
	selfGrouped.DataField, selfGrouped.GroupBy, selfGrouped.Aggregation = models.FieldPaymentStatus, models.FieldPaymentStatus, models.AggregationCount
	_, chartErr, err = RenderChart(v, e, &selfGrouped, testRecords())
	require.NoError(t, err)
	require.NotNil(t, chartErr)

	badRange := *spec
	badRange.Filters.DateRange = "yesterday"
	_, chartErr, err = RenderChart(v, e, &badRange, testRecords())
	require.NoError(t, err)
	require.NotNil(t, chartErr)
	assert.Equal(t, validate.CodeUnknownField, chartErr.Code)
}
