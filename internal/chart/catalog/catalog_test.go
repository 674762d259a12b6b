// internal/chart/catalog/catalog_test.go
package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-chart-workers/internal/models"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		wantOK   bool
		wantKind Kind
	}{
		{"monetary field", models.FieldTotalCharges, true, KindNumeric},
		{"identifier field", models.FieldPatientID, true, KindNumeric},
		{"categorical field", models.FieldPaymentStatus, true, KindCategorical},
		{"temporal field", models.FieldAdmissionDate, true, KindTemporal},
		{"text field", models.FieldPatientName, true, KindText},
		{"unknown field", "Diagnosis", false, ""},
		{"case sensitive", "totalcharges", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := Describe(tt.field)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, d.Kind)
		})
	}
}

func TestSupportsAggregation(t *testing.T) {
	tests := []struct {
		field string
		agg   models.Aggregation
		want  bool
	}{
		{models.FieldTotalCharges, models.AggregationSum, true},
		{models.FieldTotalCharges, models.AggregationAverage, true},
		{models.FieldPatientID, models.AggregationCount, true},
		{models.FieldPatientID, models.AggregationAverage, false},
		{models.FieldPolicyNumber, models.AggregationSum, false},
		{models.FieldInsuranceCoveragePercentage, models.AggregationSum, false},
		{models.FieldInsuranceCoveragePercentage, models.AggregationAverage, true},
		{models.FieldGender, models.AggregationCount, false},
		{"Unknown", models.AggregationSum, false},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+string(tt.agg), func(t *testing.T) {
			assert.Equal(t, tt.want, SupportsAggregation(tt.field, tt.agg))
		})
	}
}

func TestEveryRecordColumnIsCatalogued(t *testing.T) {
	for _, col := range models.RecordColumns {
		_, ok := Describe(col)
		assert.True(t, ok, col)
	}
	assert.Len(t, Default().Fields(), len(models.RecordColumns))
}

func TestPaymentStatusVocabulary(t *testing.T) {
	assert.Equal(t, DefaultPaymentStatuses, Default().PaymentStatuses())

	custom := New([]string{"Paid", "Unpaid"})
	d, ok := custom.Describe(models.FieldPaymentStatus)
	require.True(t, ok)
	assert.Equal(t, []string{"Paid", "Unpaid"}, d.Values)
}

func TestDescribeReturnsCopy(t *testing.T) {
	d, _ := Describe(models.FieldTotalCharges)
	d.Aggregations[0] = "median"

	again, _ := Describe(models.FieldTotalCharges)
	assert.Equal(t, models.AggregationSum, again.Aggregations[0])
}

func TestFieldsOfKind(t *testing.T) {
	c := Default()

	groupable := c.FieldsOfKind(KindCategorical, KindTemporal)
	assert.Contains(t, groupable, models.FieldPaymentStatus)
	assert.Contains(t, groupable, models.FieldAdmissionDate)
	assert.NotContains(t, groupable, models.FieldTotalCharges)

	assert.Equal(t, []string{
		models.FieldPatientID,
		models.FieldPolicyNumber,
		models.FieldTotalCharges,
		models.FieldInsuranceCoveragePercentage,
		models.FieldAmountCoveredByInsurance,
		models.FieldAmountPaid,
		models.FieldRunningBalance,
	}, c.MeasurableFields())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Service Type", Default().DisplayName(models.FieldServiceDescription))
	assert.Equal(t, "Mystery", Default().DisplayName("Mystery"))
}
