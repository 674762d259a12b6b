// internal/chart/aggregate/format_test.go
package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"billing-chart-workers/internal/models"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		field string
		agg   models.Aggregation
		value float64
		want  string
	}{
		{"charges as currency", models.FieldTotalCharges, models.AggregationSum, 1234567.4, "$1,234,567"},
		{"amount rounds to dollars", models.FieldAmountPaid, models.AggregationAverage, 99.5, "$100"},
		{"negative currency", models.FieldAmountCoveredByInsurance, models.AggregationMin, -1500, "-$1,500"},
		{"percentage one decimal", models.FieldInsuranceCoveragePercentage, models.AggregationAverage, 72.456, "72.5%"},
		{"whole number grouped", models.FieldRunningBalance, models.AggregationSum, 25000, "25,000"},
		{"fraction two decimals", models.FieldRunningBalance, models.AggregationAverage, 12.346, "12.35"},
		{"count is always an integer", models.FieldTotalCharges, models.AggregationCount, 1200, "1,200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.field, tt.agg, tt.value))
		})
	}
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", FormatInt(0))
	assert.Equal(t, "999", FormatInt(999))
	assert.Equal(t, "1,000", FormatInt(1000))
	assert.Equal(t, "-12,345,678", FormatInt(-12345678))
}

func TestFormatTimeLabel(t *testing.T) {
	assert.Equal(t, "Jan 24", FormatTimeLabel("2024-01", models.TimeGroupingMonthly))
	assert.Equal(t, "Dec 5", FormatTimeLabel("2023-12-05", models.TimeGroupingDaily))
	assert.Equal(t, "Q3 2024", FormatTimeLabel("2024-Q3", models.TimeGroupingQuarterly))
	assert.Equal(t, "2024", FormatTimeLabel("2024", models.TimeGroupingYearly))
	assert.Equal(t, "garbage", FormatTimeLabel("garbage", models.TimeGroupingMonthly))
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "Short", TruncateLabel("Short"))
	assert.Equal(t, "exactly twenty chars", TruncateLabel("exactly twenty chars"))
	assert.Equal(t, "éééééééééééééééééééé...", TruncateLabel("éééééééééééééééééééééé"))
}

func TestPeriodKey(t *testing.T) {
	d := time.Date(2024, time.August, 15, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-08-15", periodKey(d, models.TimeGroupingDaily))
	assert.Equal(t, "2024-08-11", periodKey(d, models.TimeGroupingWeekly))
	assert.Equal(t, "2024-08", periodKey(d, models.TimeGroupingMonthly))
	assert.Equal(t, "2024-Q3", periodKey(d, models.TimeGroupingQuarterly))
	assert.Equal(t, "2024", periodKey(d, models.TimeGroupingYearly))
}
