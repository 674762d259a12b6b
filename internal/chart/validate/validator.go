// internal/chart/validate/validator.go
package validate

import (
	"fmt"
	"strings"

	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/models"
)

// Result codes, shared with the job error codes.
const (
	CodeValid                  = ""
	CodeUnknownField           = "CHART_SPEC_INVALID"
	CodeUnsupportedAggregation = "UNSUPPORTED_AGGREGATION"
	CodeUnknownGroupingField   = "UNKNOWN_GROUPING_FIELD"
	CodeSelfGrouping           = "SELF_GROUPING"
	CodeNotChartable           = "CHART_SPEC_INVALID"
)

type Result struct {
	Valid       bool                 `json:"valid"`
	Code        string               `json:"code,omitempty"`
	Reason      string               `json:"reason,omitempty"`
	Allowed     []models.Aggregation `json:"allowed,omitempty"`
	Suggestions []string             `json:"suggestions,omitempty"`
}

// ChartError converts an invalid result into the user-facing error.
// Valid results return nil.
func (r Result) ChartError() *models.ChartError {
	if r.Valid {
		return nil
	}
	suggestions := r.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return &models.ChartError{
		Message:     r.Reason,
		Code:        r.Code,
		Suggestions: suggestions,
	}
}

type Validator struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Validator {
	if c == nil {
		c = catalog.Default()
	}
	return &Validator{catalog: c}
}

var defaultValidator = New(nil)

// Validate checks a (dataField, groupBy, aggregation) triple against the
// default catalog.
func Validate(dataField, groupBy string, agg models.Aggregation) Result {
	return defaultValidator.Validate(dataField, groupBy, agg)
}

// Validate applies the checks in a fixed order and stops at the first
// failure. An empty groupBy means a single ungrouped aggregate.
func (v *Validator) Validate(dataField, groupBy string, agg models.Aggregation) Result {
	dataField = strings.TrimSpace(dataField)
	groupBy = strings.TrimSpace(groupBy)

	data, ok := v.catalog.Describe(dataField)
	if !ok {
		return Result{
			Code:        CodeUnknownField,
			Reason:      fmt.Sprintf("The field %q is not available in the billing data.", dataField),
			Suggestions: v.measureExamples(v.catalog.MeasurableFields(), models.FieldPaymentStatus),
		}
	}

	if data.Kind == catalog.KindNumeric && !data.Supports(agg) {
		return Result{
			Code: CodeUnsupportedAggregation,
			Reason: fmt.Sprintf("%s cannot be aggregated with %q. Supported aggregations: %s.",
				data.DisplayName, agg, joinAggregations(data.Aggregations)),
			Allowed:     data.Aggregations,
			Suggestions: v.aggregationExamples(data),
		}
	}

	if groupBy != "" {
		group, ok := v.catalog.Describe(groupBy)
		if !ok || !group.Groupable() {
			return Result{
				Code:        CodeUnknownGroupingField,
				Reason:      fmt.Sprintf("Charts cannot be grouped by %q. Choose a category such as %s.", groupBy, v.categoricalList()),
				Suggestions: v.groupingExamples(dataField, groupBy),
			}
		}
	}

	if data.Kind == catalog.KindText {
		return Result{
			Code:        CodeNotChartable,
			Reason:      fmt.Sprintf("%s is free text and cannot be charted. Pick a numeric field instead.", data.DisplayName),
			Suggestions: v.measureExamples(v.catalog.MeasurableFields(), groupOrDefault(groupBy)),
		}
	}

	if groupBy != "" && dataField == groupBy {
		return Result{
			Code:        CodeSelfGrouping,
			Reason:      fmt.Sprintf("Cannot group a field by itself (%s).", data.DisplayName),
			Suggestions: v.groupingExamples(dataField, groupBy),
		}
	}

	if !data.Measurable() {
		return Result{
			Code:        CodeNotChartable,
			Reason:      fmt.Sprintf("%s is a %s field and cannot be measured. Use it as a grouping instead.", data.DisplayName, data.Kind),
			Suggestions: v.measureExamples(v.catalog.MeasurableFields(), dataField),
		}
	}

	return Result{Valid: true}
}

// ValidateSpec validates the triple a spec resolves to plus its enumerated
// options.
func (v *Validator) ValidateSpec(spec *models.ChartSpec) Result {
	if spec == nil {
		return Result{Code: CodeUnknownField, Reason: "No chart specification was provided.", Suggestions: v.measureExamples(v.catalog.MeasurableFields(), models.FieldPaymentStatus)}
	}

	res := v.Validate(spec.DataField, spec.GroupingField(), spec.Aggregation)
	if !res.Valid {
		return res
	}

	if !models.IsValidChartType(spec.ChartType) {
		return Result{
			Code:        CodeNotChartable,
			Reason:      fmt.Sprintf("Chart type %q is not supported. Use pie, bar or line.", spec.ChartType),
			Suggestions: []string{v.example(models.ChartTypeBar, spec.Aggregation, spec.DataField, groupOrDefault(spec.GroupingField()))},
		}
	}
	if spec.TimeGrouping != "" && !models.IsValidTimeGrouping(spec.TimeGrouping) {
		return Result{
			Code:        CodeNotChartable,
			Reason:      fmt.Sprintf("Time grouping %q is not supported. Use daily, weekly, monthly, quarterly or yearly.", spec.TimeGrouping),
			Suggestions: []string{fmt.Sprintf("Create a line chart of %s over time monthly", phraseFor(spec.DataField))},
		}
	}
	if spec.Limit < 0 {
		return Result{
			Code:   CodeNotChartable,
			Reason: "The number of groups to show must be positive.",
			Suggestions: []string{
				v.example(spec.ChartType, spec.Aggregation, spec.DataField, groupOrDefault(spec.GroupingField())) + " top 5",
			},
		}
	}
	return res
}

func (v *Validator) aggregationExamples(data catalog.FieldDescriptor) []string {
	var out []string
	for _, agg := range data.Aggregations {
		out = append(out, v.example(models.ChartTypeBar, agg, data.Name, models.FieldPaymentStatus))
	}
	return out
}

func (v *Validator) measureExamples(fields []string, groupBy string) []string {
	var out []string
	for _, f := range fields {
		if f == groupBy {
			continue
		}
		d, _ := v.catalog.Describe(f)
		if len(d.Aggregations) == 0 {
			continue
		}
		out = append(out, v.example(models.ChartTypeBar, d.Aggregations[0], f, groupBy))
		if len(out) == 3 {
			break
		}
	}
	return out
}

func (v *Validator) groupingExamples(dataField, exclude string) []string {
	measure := dataField
	agg := models.AggregationSum
	if d, ok := v.catalog.Describe(dataField); !ok || !d.Measurable() {
		measure = models.FieldTotalCharges
	} else if !d.Supports(agg) {
		agg = d.Aggregations[0]
	}

	var out []string
	for _, g := range v.catalog.FieldsOfKind(catalog.KindCategorical) {
		if g == exclude || g == measure {
			continue
		}
		out = append(out, v.example(models.ChartTypeBar, agg, measure, g))
	}
	return out
}

func (v *Validator) categoricalList() string {
	names := make([]string, 0)
	for _, f := range v.catalog.FieldsOfKind(catalog.KindCategorical) {
		names = append(names, v.catalog.DisplayName(f))
	}
	return strings.Join(names, ", ")
}

func (v *Validator) example(chartType models.ChartType, agg models.Aggregation, dataField, groupBy string) string {
	if chartType == "" {
		chartType = models.ChartTypeBar
	}
	return fmt.Sprintf("Create a %s chart of %s%s by %s", chartType, aggregationWord(agg), phraseFor(dataField), phraseFor(groupBy))
}

func groupOrDefault(groupBy string) string {
	if groupBy == "" {
		return models.FieldPaymentStatus
	}
	return groupBy
}

func joinAggregations(aggs []models.Aggregation) string {
	parts := make([]string, len(aggs))
	for i, a := range aggs {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}

func aggregationWord(agg models.Aggregation) string {
	switch agg {
	case models.AggregationAverage:
		return "average "
	case models.AggregationMax:
		return "highest "
	case models.AggregationMin:
		return "lowest "
	default:
		return ""
	}
}

// phraseFor maps fields to wording the fallback parser understands.
func phraseFor(field string) string {
	switch field {
	case models.FieldTotalCharges:
		return "revenue"
	case models.FieldAmountPaid:
		return "amount paid"
	case models.FieldAmountCoveredByInsurance:
		return "insurance coverage amount"
	case models.FieldInsuranceCoveragePercentage:
		return "insurance coverage percentage"
	case models.FieldRunningBalance:
		return "outstanding balance"
	case models.FieldPatientID:
		return "number of patients"
	case models.FieldPolicyNumber:
		return "number of policies"
	case models.FieldServiceDescription:
		return "procedure"
	case models.FieldInsuranceProvider:
		return "insurance provider"
	case models.FieldGender:
		return "gender"
	case models.FieldPaymentStatus:
		return "payment status"
	default:
		return strings.ToLower(catalog.Default().DisplayName(field))
	}
}
