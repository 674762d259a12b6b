// internal/chart/generator/parse.go
package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/common/validation"
	"billing-chart-workers/internal/models"
)

var (
	ErrMalformedResponse = errors.New("malformed oracle response")
	ErrSchemaMismatch    = errors.New("oracle response does not match chart schema")
)

// stripFences removes markdown code fences around a JSON payload.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject trims leading or trailing prose around the outermost object.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

var lowercaseKeys = []string{"chartType", "aggregation", "timeGrouping", "sortBy", "sortOrder"}

// parseSpec treats the oracle text as untrusted: it is decoded loosely,
// shape-checked against the chart schema, then decoded into the typed spec.
func parseSpec(text string, c *catalog.Catalog) (*models.ChartSpec, error) {
	body := extractObject(stripFences(text))

	var loose map[string]interface{}
	if err := json.Unmarshal([]byte(body), &loose); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if wrapped, ok := loose["chartSpec"].(map[string]interface{}); ok {
		loose = wrapped
	}

	for _, key := range lowercaseKeys {
		if s, ok := loose[key].(string); ok {
			loose[key] = strings.ToLower(strings.TrimSpace(s))
		}
	}

	if res := validation.ValidateChartSpec(loose); !res.Valid {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, res.Err())
	}

	normalized, err := json.Marshal(loose)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	var spec models.ChartSpec
	if err := json.Unmarshal(normalized, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	applyDefaults(&spec, c)
	return &spec, nil
}

func applyDefaults(spec *models.ChartSpec, c *catalog.Catalog) {
	spec.DataField = strings.TrimSpace(spec.DataField)
	spec.GroupBy = strings.TrimSpace(spec.GroupBy)
	spec.Filters.Category = strings.TrimSpace(spec.Filters.Category)

	if spec.SortBy == "" {
		spec.SortBy = models.SortByValue
	}
	if spec.SortOrder == "" {
		spec.SortOrder = models.SortOrderDesc
	}
	if spec.ChartType == models.ChartTypeLine && spec.TimeGrouping == "" {
		if d, ok := c.Describe(spec.GroupingField()); !ok || d.Kind != catalog.KindCategorical {
			spec.TimeGrouping = models.TimeGroupingMonthly
		}
	}
	if spec.Visualization.Size == "" {
		spec.Visualization.Size = "medium"
	}
	if spec.Visualization.ColorScheme == "" {
		spec.Visualization.ColorScheme = "colorful"
	}
	if strings.TrimSpace(spec.Title) == "" {
		if g := spec.GroupingField(); g != "" {
			spec.Title = fmt.Sprintf("%s by %s", c.DisplayName(spec.DataField), c.DisplayName(g))
		} else {
			spec.Title = c.DisplayName(spec.DataField)
		}
	}
	spec.Insights = strings.TrimSpace(spec.Insights)
}

var genericInsights = []string{
	"chart",
	"this chart shows the data",
	"data visualization",
	"shows the data",
	"visualization of the data",
	"n/a",
}

// needsExplanation reports whether insights are too short or too generic
// to show a user as-is.
func needsExplanation(insights string, minLength int) bool {
	s := strings.ToLower(strings.TrimSpace(insights))
	if len(s) < minLength {
		return true
	}
	for _, g := range genericInsights {
		if s == g || strings.TrimSuffix(s, ".") == g {
			return true
		}
	}
	return false
}

// cleanExplanation trims quotes and fences from a free-text explanation.
func cleanExplanation(s string) string {
	s = stripFences(s)
	s = strings.Trim(s, "\"' \n\t")
	return strings.TrimSpace(s)
}
