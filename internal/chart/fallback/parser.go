// internal/chart/fallback/parser.go
package fallback

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/chart/validate"
	"billing-chart-workers/internal/models"
)

type keywordGroup struct {
	chartType models.ChartType
	keywords  []string
}

var (
	explicitTypes = []struct {
		chartType models.ChartType
		pattern   *regexp.Regexp
	}{
		{models.ChartTypePie, regexp.MustCompile(`\b(pie|donut|doughnut)\b`)},
		{models.ChartTypeLine, regexp.MustCompile(`\bline\b`)},
		{models.ChartTypeBar, regexp.MustCompile(`\bbar\b`)},
	}

	typeKeywordGroups = []keywordGroup{
		{models.ChartTypePie, []string{"distribution", "breakdown", "proportion", "share"}},
		{models.ChartTypeLine, []string{"trend", "over time", "timeline", "monthly", "yearly", "weekly", "daily", "quarterly"}},
		{models.ChartTypeBar, []string{"comparison", "compare", "versus", " vs"}},
	}

	averagePattern = regexp.MustCompile(`\b(average|avg|mean)\b`)
	maxPattern     = regexp.MustCompile(`\b(highest|maximum|max)\b`)
	minPattern     = regexp.MustCompile(`\b(lowest|minimum|min)\b`)
	limitPattern   = regexp.MustCompile(`\b(top|first|last)\s+(\d+)\b`)

	dailyPattern     = regexp.MustCompile(`\b(daily|day|days)\b`)
	weeklyPattern    = regexp.MustCompile(`\b(weekly|week|weeks)\b`)
	quarterlyPattern = regexp.MustCompile(`\b(quarterly|quarter|quarters)\b`)
	yearlyPattern    = regexp.MustCompile(`\b(yearly|annual|annually|year|years)\b`)
)

var colorSchemes = []string{"blue", "green", "red", "purple", "orange", "professional", "pastel"}

var colorPatterns = compileWords(colorSchemes)

// DefaultColorScheme is used when the utterance names no palette.
const DefaultColorScheme = "colorful"

var categoryClauses = map[string]string{
	models.FieldServiceDescription: "It highlights which procedures and services drive the most billing activity.",
	models.FieldPaymentStatus:      "It shows how billing is split across payment statuses, which helps track collections and outstanding accounts.",
	models.FieldInsuranceProvider:  "It compares insurers and reveals which providers account for the largest share of claims.",
	models.FieldGender:             "It contrasts billing patterns across patient gender groups.",
}

const genericClause = "It groups the data to reveal patterns across categories."

// Parser turns an utterance into a chart spec using keyword rules only.
// Output depends on nothing but the utterance.
type Parser struct {
	catalog   *catalog.Catalog
	validator *validate.Validator
}

func New(c *catalog.Catalog) *Parser {
	if c == nil {
		c = catalog.Default()
	}
	return &Parser{catalog: c, validator: validate.New(c)}
}

var defaultParser = New(nil)

// Parse runs the default parser.
func Parse(utterance string) (*models.ChartSpec, *models.ChartError) {
	return defaultParser.Parse(utterance)
}

// Parse returns a fully populated spec, or the validator's ChartError when the
// derived field combination is impossible.
func (p *Parser) Parse(utterance string) (*models.ChartSpec, *models.ChartError) {
	text := strings.ToLower(strings.TrimSpace(utterance))

	chartType := detectChartType(text)
	dataField, agg := detectDataField(text)
	agg = overrideAggregation(text, agg)
	category := detectCategory(text)

	if res := p.validator.Validate(dataField, category, agg); !res.Valid {
		return nil, res.ChartError()
	}

	spec := &models.ChartSpec{
		ChartType:   chartType,
		DataField:   dataField,
		Aggregation: agg,
		SortBy:      models.SortByValue,
		SortOrder:   models.SortOrderDesc,
		Filters: models.ChartFilters{
			Category: category,
		},
	}

	if chartType == models.ChartTypeLine {
		spec.TimeGrouping = detectTimeGrouping(text)
		spec.SortBy = models.SortByLabel
		spec.SortOrder = models.SortOrderAsc
	}

	spec.Visualization = detectVisualization(text, chartType)
	spec.Limit = detectLimit(text)
	spec.Title = fmt.Sprintf("%s by %s", p.catalog.DisplayName(dataField), p.catalog.DisplayName(category))
	spec.Insights = p.insights(text, spec)

	return spec, nil
}

func detectChartType(text string) models.ChartType {
	for _, e := range explicitTypes {
		if e.pattern.MatchString(text) {
			return e.chartType
		}
	}
	for _, g := range typeKeywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(text, kw) {
				return g.chartType
			}
		}
	}
	return models.ChartTypeBar
}

func detectDataField(text string) (string, models.Aggregation) {
	switch {
	case containsAny(text, "revenue", "billing", "financial", "charge", "cost"):
		return models.FieldTotalCharges, models.AggregationSum
	case (strings.Contains(text, "payment") && strings.Contains(text, "amount")) || strings.Contains(text, "paid"):
		return models.FieldAmountPaid, models.AggregationSum
	case strings.Contains(text, "insurance") && strings.Contains(text, "coverage"):
		if strings.Contains(text, "percent") {
			return models.FieldInsuranceCoveragePercentage, models.AggregationAverage
		}
		return models.FieldAmountCoveredByInsurance, models.AggregationSum
	case containsAny(text, "outstanding", "balance", "owed"):
		return models.FieldRunningBalance, models.AggregationSum
	case containsAny(text, "patient", "count", "number of"):
		return models.FieldPatientID, models.AggregationCount
	default:
		return models.FieldTotalCharges, models.AggregationSum
	}
}

// overrideAggregation applies regardless of which field rule matched.
func overrideAggregation(text string, agg models.Aggregation) models.Aggregation {
	switch {
	case averagePattern.MatchString(text):
		return models.AggregationAverage
	case maxPattern.MatchString(text):
		return models.AggregationMax
	case minPattern.MatchString(text):
		return models.AggregationMin
	default:
		return agg
	}
}

func detectCategory(text string) string {
	switch {
	case containsAny(text, "procedure", "service", "treatment"):
		return models.FieldServiceDescription
	case containsAny(text, "insurer", "insurance provider", "provider", "by insurance"):
		return models.FieldInsuranceProvider
	case containsAny(text, "gender", "male", "female"):
		return models.FieldGender
	default:
		return models.FieldPaymentStatus
	}
}

func detectTimeGrouping(text string) models.TimeGrouping {
	switch {
	case dailyPattern.MatchString(text):
		return models.TimeGroupingDaily
	case weeklyPattern.MatchString(text):
		return models.TimeGroupingWeekly
	case quarterlyPattern.MatchString(text):
		return models.TimeGroupingQuarterly
	case yearlyPattern.MatchString(text):
		return models.TimeGroupingYearly
	default:
		return models.TimeGroupingMonthly
	}
}

func detectVisualization(text string, chartType models.ChartType) models.Visualization {
	v := models.Visualization{
		Size:        "medium",
		ColorScheme: DefaultColorScheme,
		Orientation: "vertical",
		ChartStyle:  "standard",
	}

	switch {
	case containsAny(text, "large", "big"):
		v.Size = "large"
	case containsAny(text, "small", "compact"):
		v.Size = "small"
	}

	for i, pattern := range colorPatterns {
		if pattern.MatchString(text) {
			v.ColorScheme = colorSchemes[i]
			break
		}
	}

	if strings.Contains(text, "horizontal") {
		v.Orientation = "horizontal"
	}
	if chartType == models.ChartTypePie && containsAny(text, "donut", "doughnut") {
		v.ChartStyle = "donut"
	}

	v.ShowGrid = models.BoolPtr(chartType != models.ChartTypePie)
	v.ShowTrend = models.BoolPtr(chartType == models.ChartTypeLine || strings.Contains(text, "trend"))
	v.ShowTotal = models.BoolPtr(strings.Contains(text, "total"))
	v.ShowPercentages = models.BoolPtr(chartType == models.ChartTypePie || strings.Contains(text, "percent"))
	return v
}

func detectLimit(text string) int {
	m := limitPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func (p *Parser) insights(text string, spec *models.ChartSpec) string {
	field := strings.ToLower(p.catalog.DisplayName(spec.DataField))
	category := strings.ToLower(p.catalog.DisplayName(spec.Filters.Category))

	var b strings.Builder
	if spec.ChartType == models.ChartTypeLine {
		fmt.Fprintf(&b, "This line chart tracks %s%s %s over time.", aggregationLead(spec.Aggregation), field, spec.TimeGrouping)
	} else {
		fmt.Fprintf(&b, "This %s chart shows %s%s by %s.", spec.ChartType, aggregationLead(spec.Aggregation), field, category)
	}

	clause, ok := categoryClauses[spec.Filters.Category]
	if !ok {
		clause = genericClause
	}
	b.WriteString(" ")
	b.WriteString(clause)

	switch {
	case strings.Contains(text, "revenue"):
		b.WriteString(" Revenue figures reflect total charges billed before insurance adjustments.")
	case strings.Contains(text, "patient"):
		b.WriteString(" Patient figures count individual billing records.")
	}
	return b.String()
}

func aggregationLead(agg models.Aggregation) string {
	switch agg {
	case models.AggregationSum:
		return "total "
	case models.AggregationAverage:
		return "average "
	case models.AggregationMax:
		return "highest "
	case models.AggregationMin:
		return "lowest "
	case models.AggregationCount:
		return "the count of "
	default:
		return ""
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func compileWords(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}
