// internal/chart/generator/prompt.go
package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/models"
)

// BuildPrompt asks for a single JSON chart specification grounded in the
// catalog and a few sample records.
func BuildPrompt(utterance string, c *catalog.Catalog, sample []models.Record) string {
	var b strings.Builder

	b.WriteString("You are a chart specification generator for a healthcare billing and insurance dataset.\n")
	b.WriteString("Translate the user's request into ONE chart specification. Do not compute any values.\n\n")

	b.WriteString("AVAILABLE FIELDS:\n")
	for _, f := range c.Fields() {
		switch {
		case f.Kind == catalog.KindNumeric:
			fmt.Fprintf(&b, "- %s (%s; aggregations: %s)\n", f.Name, f.Kind, joinAggregations(f.Aggregations))
		case len(f.Values) > 0:
			fmt.Fprintf(&b, "- %s (%s; values: %s)\n", f.Name, f.Kind, strings.Join(f.Values, ", "))
		default:
			fmt.Fprintf(&b, "- %s (%s)\n", f.Name, f.Kind)
		}
	}

	if len(sample) > 0 {
		sampleJSON, _ := json.MarshalIndent(sample, "", "  ")
		fmt.Fprintf(&b, "\nSAMPLE RECORDS:\n%s\n", sampleJSON)
	}

	b.WriteString(`
RULES:
- dataField must be a numeric field and aggregation must be one it supports.
- groupBy must be a categorical or temporal field and must differ from dataField.
- Text fields can never be charted.
- Use chartType "line" with timeGrouping (daily, weekly, monthly, quarterly, yearly) for trends over time.
- Use "pie" for proportions and "bar" for comparisons.
- insights is a one or two sentence explanation of what the chart shows.

Respond with JSON only, no prose, using exactly these keys:
{
  "chartType": "pie | line | bar",
  "title": "string",
  "dataField": "string",
  "aggregation": "sum | count | average | max | min",
  "groupBy": "string",
  "timeGrouping": "daily | weekly | monthly | quarterly | yearly | null",
  "sortBy": "value | label | none",
  "sortOrder": "asc | desc",
  "limit": 0,
  "filters": {"category": "string", "dateRange": "YYYY-MM-DD,YYYY-MM-DD", "valueThreshold": null},
  "visualization": {"size": "small | medium | large", "colorScheme": "string", "showGrid": true, "showTrend": false, "showTotal": false, "showPercentages": false, "orientation": "vertical | horizontal", "chartStyle": "standard | donut"},
  "insights": "string"
}
`)
	fmt.Fprintf(&b, "\nUSER REQUEST: %s\n", utterance)
	return b.String()
}

// BuildExplainPrompt asks for a short plain-language explanation of a spec.
func BuildExplainPrompt(utterance string, spec *models.ChartSpec, c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("Explain in one or two plain sentences what the following chart shows for a healthcare billing team. ")
	b.WriteString("Respond with the explanation only.\n\n")
	fmt.Fprintf(&b, "Request: %s\n", utterance)
	fmt.Fprintf(&b, "Chart: %s chart titled %q\n", spec.ChartType, spec.Title)
	fmt.Fprintf(&b, "Measure: %s of %s\n", spec.Aggregation, c.DisplayName(spec.DataField))
	if spec.IsTimeSeries() {
		fmt.Fprintf(&b, "Grouped: %s by %s\n", spec.TimeGrouping, c.DisplayName(models.TimeSeriesDateField))
	} else if g := spec.GroupingField(); g != "" {
		fmt.Fprintf(&b, "Grouped by: %s\n", c.DisplayName(g))
	}
	return b.String()
}

func joinAggregations(aggs []models.Aggregation) string {
	parts := make([]string, len(aggs))
	for i, a := range aggs {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}
