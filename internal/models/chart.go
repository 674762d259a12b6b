// internal/models/chart.go
package models

import "strings"

type ChartType string

const (
	ChartTypePie  ChartType = "pie"
	ChartTypeLine ChartType = "line"
	ChartTypeBar  ChartType = "bar"
)

type Aggregation string

const (
	AggregationSum     Aggregation = "sum"
	AggregationCount   Aggregation = "count"
	AggregationAverage Aggregation = "average"
	AggregationMax     Aggregation = "max"
	AggregationMin     Aggregation = "min"
)

// AllAggregations is ordered for stable suggestion lists.
var AllAggregations = []Aggregation{
	AggregationSum,
	AggregationCount,
	AggregationAverage,
	AggregationMax,
	AggregationMin,
}

type TimeGrouping string

const (
	TimeGroupingDaily     TimeGrouping = "daily"
	TimeGroupingWeekly    TimeGrouping = "weekly"
	TimeGroupingMonthly   TimeGrouping = "monthly"
	TimeGroupingQuarterly TimeGrouping = "quarterly"
	TimeGroupingYearly    TimeGrouping = "yearly"
)

type SortBy string

const (
	SortByValue SortBy = "value"
	SortByLabel SortBy = "label"
	SortByNone  SortBy = "none"
)

type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// TimeSeriesDateField is the column time buckets are derived from.
const TimeSeriesDateField = FieldAdmissionDate

// ChartSpec describes what to compute for one chart and how to draw it.
// It is built fresh per utterance and treated as read-only once validated.
type ChartSpec struct {
	ChartType     ChartType     `json:"chartType"`
	Title         string        `json:"title"`
	DataField     string        `json:"dataField"`
	Aggregation   Aggregation   `json:"aggregation"`
	GroupBy       string        `json:"groupBy,omitempty"`
	TimeGrouping  TimeGrouping  `json:"timeGrouping,omitempty"`
	SortBy        SortBy        `json:"sortBy,omitempty"`
	SortOrder     SortOrder     `json:"sortOrder,omitempty"`
	Limit         int           `json:"limit,omitempty"`
	Filters       ChartFilters  `json:"filters"`
	Visualization Visualization `json:"visualization"`
	Insights      string        `json:"insights"`
}

type ChartFilters struct {
	Category       string   `json:"category,omitempty"`
	DateRange      string   `json:"dateRange,omitempty"`
	ValueThreshold *float64 `json:"valueThreshold,omitempty"`
}

// Visualization options only affect rendering and pass through untouched.
type Visualization struct {
	Size            string `json:"size"`
	ColorScheme     string `json:"colorScheme,omitempty"`
	ShowTrend       *bool  `json:"showTrend,omitempty"`
	ShowGrid        *bool  `json:"showGrid,omitempty"`
	ShowTotal       *bool  `json:"showTotal,omitempty"`
	ShowPercentages *bool  `json:"showPercentages,omitempty"`
	Orientation     string `json:"orientation,omitempty"`
	ChartStyle      string `json:"chartStyle,omitempty"`
}

// GroupingField returns the categorical field records are grouped by.
// An empty result means a single aggregate over all records.
func (s *ChartSpec) GroupingField() string {
	if g := strings.TrimSpace(s.GroupBy); g != "" {
		return g
	}
	return strings.TrimSpace(s.Filters.Category)
}

// IsTimeSeries reports whether records are bucketed by admission date.
func (s *ChartSpec) IsTimeSeries() bool {
	return s.ChartType == ChartTypeLine && s.TimeGrouping != ""
}

// ChartError is the user-facing explanation for a chart that cannot be built.
type ChartError struct {
	Message     string   `json:"error"`
	Code        string   `json:"code,omitempty"`
	Suggestions []string `json:"suggestions"`
}

func (e *ChartError) Error() string {
	return e.Message
}

func IsValidChartType(t ChartType) bool {
	switch t {
	case ChartTypePie, ChartTypeLine, ChartTypeBar:
		return true
	}
	return false
}

func IsValidAggregation(a Aggregation) bool {
	for _, agg := range AllAggregations {
		if agg == a {
			return true
		}
	}
	return false
}

func IsValidTimeGrouping(g TimeGrouping) bool {
	switch g {
	case TimeGroupingDaily, TimeGroupingWeekly, TimeGroupingMonthly, TimeGroupingQuarterly, TimeGroupingYearly:
		return true
	}
	return false
}

// BoolPtr is a small helper for optional visualization toggles.
func BoolPtr(b bool) *bool {
	return &b
}
