package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestValidateChartSpec(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"minimal", `{"chartType":"pie","dataField":"TotalCharges","aggregation":"sum"}`, true},
		{"full", `{"chartType":"line","title":"t","dataField":"AmountPaid","aggregation":"max","groupBy":null,
			"timeGrouping":"monthly","sortBy":"label","sortOrder":"asc","limit":6,
			"filters":{"category":"PaymentStatus","dateRange":"2024-01-01,2024-12-31","valueThreshold":10},
			"visualization":{"size":"large"},"insights":"x"}`, true},
		{"missing aggregation", `{"chartType":"pie","dataField":"TotalCharges"}`, false},
		{"unknown chart type", `{"chartType":"radar","dataField":"TotalCharges","aggregation":"sum"}`, false},
		{"unknown aggregation", `{"chartType":"bar","dataField":"TotalCharges","aggregation":"median"}`, false},
		{"fractional limit", `{"chartType":"bar","dataField":"TotalCharges","aggregation":"sum","limit":2.5}`, false},
		{"negative limit", `{"chartType":"bar","dataField":"TotalCharges","aggregation":"sum","limit":-1}`, false},
		{"threshold as text", `{"chartType":"bar","dataField":"TotalCharges","aggregation":"sum","filters":{"valueThreshold":"high"}}`, false},
		{"empty data field", `{"chartType":"bar","dataField":"","aggregation":"sum"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateChartSpec(decode(t, tt.doc))
			assert.Equal(t, tt.valid, res.Valid, "%+v", res.Errors)
			if tt.valid {
				assert.NoError(t, res.Err())
			} else {
				assert.Error(t, res.Err())
				assert.NotEmpty(t, res.Errors)
			}
		})
	}
}

func TestValidateChartBundle(t *testing.T) {
	valid := `{"chartType":"bar","title":"Revenue","insights":"","visualization":{"size":"medium"},
		"series":{"kind":"category","field":"TotalCharges","aggregation":"sum","points":[
			{"label":"Paid","value":300,"displayValue":"$300","metadata":{"originalKey":"Paid","field":"TotalCharges"}}]}}`
	assert.True(t, ValidateChartBundle(decode(t, valid)).Valid)

	empty := `{"chartType":"bar","title":"Revenue","visualization":{},
		"series":{"kind":"category","field":"TotalCharges","aggregation":"sum","points":[]}}`
	res := ValidateChartBundle(decode(t, empty))
	assert.False(t, res.Valid)
	assert.Contains(t, res.Err().Error(), "points")
}

func TestCompileRejectsBadSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`not json`) })
}
