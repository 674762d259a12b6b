// internal/chart/validate/validator_test.go
package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		groupBy  string
		agg      models.Aggregation
		wantOK   bool
		wantCode string
	}{
		{"sum of charges by status", models.FieldTotalCharges, models.FieldPaymentStatus, models.AggregationSum, true, ""},
		{"ungrouped total", models.FieldTotalCharges, "", models.AggregationSum, true, ""},
		{"count patients by provider", models.FieldPatientID, models.FieldInsuranceProvider, models.AggregationCount, true, ""},
		{"group by temporal", models.FieldAmountPaid, models.FieldAdmissionDate, models.AggregationMax, true, ""},
		{"unknown data field", "Diagnosis", models.FieldPaymentStatus, models.AggregationSum, false, CodeUnknownField},
		{"average of identifier", models.FieldPatientID, models.FieldPaymentStatus, models.AggregationAverage, false, CodeUnsupportedAggregation},
		{"sum of percentage", models.FieldInsuranceCoveragePercentage, "", models.AggregationSum, false, CodeUnsupportedAggregation},
		{"unknown aggregation", models.FieldTotalCharges, "", models.Aggregation("median"), false, CodeUnsupportedAggregation},
		{"group by numeric", models.FieldTotalCharges, models.FieldAmountPaid, models.AggregationSum, false, CodeUnknownGroupingField},
		{"group by unknown", models.FieldTotalCharges, "Ward", models.AggregationSum, false, CodeUnknownGroupingField},
		{"group by text", models.FieldTotalCharges, models.FieldEmail, models.AggregationSum, false, CodeUnknownGroupingField},
		{"text data field", models.FieldPatientName, models.FieldGender, models.AggregationCount, false, CodeNotChartable},
		{"self grouping", models.FieldGender, models.FieldGender, models.AggregationCount, false, CodeSelfGrouping},
		{"categorical data field", models.FieldGender, models.FieldPaymentStatus, models.AggregationCount, false, CodeNotChartable},
		{"temporal data field", models.FieldAdmissionDate, "", models.AggregationCount, false, CodeNotChartable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.data, tt.groupBy, tt.agg)
			assert.Equal(t, tt.wantOK, res.Valid)
			assert.Equal(t, tt.wantCode, res.Code)
			if !tt.wantOK {
				assert.NotEmpty(t, res.Reason)
				assert.NotEmpty(t, res.Suggestions)
			}
		})
	}
}

func TestAverageOnIdentifierSuggestsCount(t *testing.T) {
	res := Validate(models.FieldPatientID, models.FieldPaymentStatus, models.AggregationAverage)

	require.False(t, res.Valid)
	assert.Equal(t, []models.Aggregation{models.AggregationCount}, res.Allowed)
	assert.Contains(t, res.Reason, "count")
	assert.Equal(t, []string{"Create a bar chart of number of patients by payment status"}, res.Suggestions)

	chartErr := res.ChartError()
	require.NotNil(t, chartErr)
	assert.Equal(t, res.Reason, chartErr.Error())
	assert.Equal(t, res.Suggestions, chartErr.Suggestions)
}

func TestTextFieldsNeverValid(t *testing.T) {
	c := catalog.Default()
	groupings := append([]string{""}, c.Names()...)

	for _, field := range c.FieldsOfKind(catalog.KindText) {
		for _, group := range groupings {
			for _, agg := range models.AllAggregations {
				res := Validate(field, group, agg)
				assert.False(t, res.Valid, "%s by %q with %s", field, group, agg)
			}
		}
	}
}

func TestSelfGroupingNeverValid(t *testing.T) {
	fields := append(catalog.Default().Names(), "NotAField")

	for _, field := range fields {
		for _, agg := range models.AllAggregations {
			res := Validate(field, field, agg)
			assert.False(t, res.Valid, "%s by itself with %s", field, agg)
		}
	}
}

func TestSelfGroupingSuggestsOtherCategories(t *testing.T) {
	res := Validate(models.FieldPaymentStatus, models.FieldPaymentStatus, models.AggregationCount)

	require.Equal(t, CodeSelfGrouping, res.Code)
	for _, s := range res.Suggestions {
		assert.NotContains(t, s, "by payment status")
	}
	assert.Contains(t, res.Suggestions, "Create a bar chart of revenue by procedure")
}

func TestValidResultHasNoChartError(t *testing.T) {
	assert.Nil(t, Validate(models.FieldTotalCharges, "", models.AggregationSum).ChartError())
}

func TestValidateSpec(t *testing.T) {
	v := New(nil)
	base := func() *models.ChartSpec {
		return &models.ChartSpec{
			ChartType:   models.ChartTypeBar,
			DataField:   models.FieldTotalCharges,
			Aggregation: models.AggregationSum,
			Filters:     models.ChartFilters{Category: models.FieldPaymentStatus},
		}
	}

	tests := []struct {
		name   string
		mutate func(s *models.ChartSpec)
		wantOK bool
	}{
		{"valid", func(s *models.ChartSpec) {}, true},
		{"groupBy takes precedence over category", func(s *models.ChartSpec) { s.GroupBy = models.FieldTotalCharges }, false},
		{"bad chart type", func(s *models.ChartSpec) { s.ChartType = "radar" }, false},
		{"bad time grouping", func(s *models.ChartSpec) { s.TimeGrouping = "hourly" }, false},
		{"negative limit", func(s *models.ChartSpec) { s.Limit = -1 }, false},
		{"valid line chart", func(s *models.ChartSpec) {
			s.ChartType = models.ChartTypeLine
			s.TimeGrouping = models.TimeGroupingQuarterly
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base()
			tt.mutate(spec)
			assert.Equal(t, tt.wantOK, v.ValidateSpec(spec).Valid)
		})
	}

	assert.False(t, v.ValidateSpec(nil).Valid)
}
