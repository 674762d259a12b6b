// internal/chart/aggregate/engine.go
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/models"
)

var (
	ErrNoData      = errors.New("no data available")
	ErrInvalidSpec = errors.New("invalid chart specification")
)

// UnknownLabel groups records whose grouping value is absent.
const UnknownLabel = "Unknown"

type Engine struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Engine {
	if c == nil {
		c = catalog.Default()
	}
	return &Engine{catalog: c}
}

var defaultEngine = New(nil)

func Aggregate(spec *models.ChartSpec, records []models.Record) (*models.Series, error) {
	return defaultEngine.Aggregate(spec, records)
}

type group struct {
	key    string
	values []float64
	value  float64
}

// Aggregate reduces the complete record set into the series described by
// spec. Empty input, or input emptied by filters, yields ErrNoData.
func (e *Engine) Aggregate(spec *models.ChartSpec, records []models.Record) (*models.Series, error) {
	if spec == nil || spec.DataField == "" {
		return nil, ErrInvalidSpec
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	filtered, err := applyFilters(spec, records)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return nil, ErrNoData
	}

	var series *models.Series
	switch {
	case spec.IsTimeSeries():
		series = e.timeSeries(spec, filtered)
	case spec.GroupingField() != "":
		series = e.categorySeries(spec, filtered)
	default:
		series = e.singleValue(spec, filtered)
	}

	if len(series.Points) == 0 {
		return nil, ErrNoData
	}
	series.RecordCount = len(filtered)
	return series, nil
}

func (e *Engine) timeSeries(spec *models.ChartSpec, records []models.Record) *models.Series {
	groups := collect(records, spec.DataField, func(r models.Record) (string, bool) {
		t, ok := r.Date(models.TimeSeriesDateField)
		if !ok {
			return "", false
		}
		return periodKey(t, spec.TimeGrouping), true
	})
	reduceAll(groups, spec.Aggregation)

	// Period keys sort chronologically as plain strings.
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	if spec.Limit > 0 && len(groups) > spec.Limit {
		groups = groups[len(groups)-spec.Limit:]
	}

	series := &models.Series{
		Kind:        models.SeriesKindTime,
		Field:       spec.DataField,
		Aggregation: spec.Aggregation,
		GroupBy:     models.TimeSeriesDateField,
	}
	for _, g := range groups {
		series.Points = append(series.Points, e.point(spec, FormatTimeLabel(g.key, spec.TimeGrouping), g.key, g.value))
	}
	return series
}

func (e *Engine) categorySeries(spec *models.ChartSpec, records []models.Record) *models.Series {
	field := spec.GroupingField()
	temporal := false
	if d, ok := e.catalog.Describe(field); ok && d.Kind == catalog.KindTemporal {
		temporal = true
	}

	groups := collect(records, spec.DataField, func(r models.Record) (string, bool) {
		if temporal {
			t, ok := r.Date(field)
			if !ok {
				return "", false
			}
			return t.Format("2006-01-02"), true
		}
		if s, ok := r.String(field); ok {
			return s, true
		}
		return UnknownLabel, true
	})
	reduceAll(groups, spec.Aggregation)
	sortGroups(groups, spec.SortBy, spec.SortOrder)

	var others *group
	if spec.Limit > 0 && len(groups) > spec.Limit {
		keep := spec.Limit - 1
		collapsed := groups[keep:]
		groups = groups[:keep]

		total := 0.0
		for _, g := range collapsed {
			total += g.value
		}
		if total != 0 {
			others = &group{key: models.OthersLabel, value: finite(total)}
		}
	}

	series := &models.Series{
		Kind:        models.SeriesKindCategory,
		Field:       spec.DataField,
		Aggregation: spec.Aggregation,
		GroupBy:     field,
	}
	for _, g := range groups {
		series.Points = append(series.Points, e.point(spec, TruncateLabel(g.key), g.key, g.value))
	}
	if others != nil {
		series.Points = append(series.Points, e.point(spec, models.OthersLabel, models.OthersLabel, others.value))
	}
	return series
}

func (e *Engine) singleValue(spec *models.ChartSpec, records []models.Record) *models.Series {
	var values []float64
	for _, r := range records {
		if v, ok := r.Number(spec.DataField); ok {
			values = append(values, v)
		}
	}
	value := Reduce(values, spec.Aggregation)

	return &models.Series{
		Kind:        models.SeriesKindSingle,
		Field:       spec.DataField,
		Aggregation: spec.Aggregation,
		Points:      []models.SeriesPoint{e.point(spec, models.TotalLabel, models.TotalLabel, value)},
	}
}

func (e *Engine) point(spec *models.ChartSpec, label, key string, value float64) models.SeriesPoint {
	return models.SeriesPoint{
		Label:        label,
		Value:        value,
		DisplayValue: FormatValue(spec.DataField, spec.Aggregation, value),
		Metadata: models.PointMetadata{
			OriginalKey: key,
			Field:       spec.DataField,
		},
	}
}

// collect buckets numeric values by key in first-seen order. Records that
// yield no key are skipped; records without a numeric value still create
// their bucket.
func collect(records []models.Record, field string, keyOf func(models.Record) (string, bool)) []*group {
	index := make(map[string]*group)
	var order []*group

	for _, r := range records {
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		g, exists := index[key]
		if !exists {
			g = &group{key: key}
			index[key] = g
			order = append(order, g)
		}
		if v, ok := r.Number(field); ok {
			g.values = append(g.values, v)
		}
	}
	return order
}

func reduceAll(groups []*group, agg models.Aggregation) {
	for _, g := range groups {
		g.value = Reduce(g.values, agg)
	}
}

// Reduce applies an aggregation to already-numeric values. Empty input
// yields 0 for every aggregation and the result is always finite.
func Reduce(values []float64, agg models.Aggregation) float64 {
	if len(values) == 0 {
		return 0
	}

	switch agg {
	case models.AggregationCount:
		return float64(len(values))
	case models.AggregationAverage:
		return finite(sum(values) / float64(len(values)))
	case models.AggregationMax:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return finite(m)
	case models.AggregationMin:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return finite(m)
	default:
		return finite(sum(values))
	}
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func sortGroups(groups []*group, by models.SortBy, order models.SortOrder) {
	if by == models.SortByNone {
		return
	}
	desc := order == models.SortOrderDesc || (order == "" && by != models.SortByLabel)

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if by == models.SortByLabel {
			la, lb := strings.ToLower(a.key), strings.ToLower(b.key)
			if la == lb {
				return false
			}
			if desc {
				return la > lb
			}
			return la < lb
		}
		if a.value == b.value {
			return false
		}
		if desc {
			return a.value > b.value
		}
		return a.value < b.value
	})
}

func applyFilters(spec *models.ChartSpec, records []models.Record) ([]models.Record, error) {
	var from, to time.Time
	hasRange := false
	if r := strings.TrimSpace(spec.Filters.DateRange); r != "" {
		var err error
		from, to, err = parseDateRange(r)
		if err != nil {
			return nil, err
		}
		hasRange = true
	}
	threshold := spec.Filters.ValueThreshold

	if !hasRange && threshold == nil {
		return records, nil
	}

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if hasRange {
			t, ok := r.Date(models.FieldAdmissionDate)
			if !ok {
				t, ok = r.Date(models.FieldDischargeDate)
			}
			if !ok {
				continue
			}
			day := t.Truncate(24 * time.Hour)
			if !from.IsZero() && day.Before(from) {
				continue
			}
			if !to.IsZero() && day.After(to) {
				continue
			}
		}
		if threshold != nil {
			v, ok := r.Number(spec.DataField)
			if !ok || v < *threshold {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// parseDateRange reads "start,end"; either side may be empty.
func parseDateRange(s string) (time.Time, time.Time, error) {
	start, end, ok := strings.Cut(s, ",")
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date range %q must be \"start,end\"", ErrInvalidSpec, s)
	}

	var from, to time.Time
	if start = strings.TrimSpace(start); start != "" {
		t, ok := models.ParseDate(start)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: bad range start %q", ErrInvalidSpec, start)
		}
		from = t.Truncate(24 * time.Hour)
	}
	if end = strings.TrimSpace(end); end != "" {
		t, ok := models.ParseDate(end)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: bad range end %q", ErrInvalidSpec, end)
		}
		to = t.Truncate(24 * time.Hour)
	}
	return from, to, nil
}

// Bundle packages a series for chart renderers.
func Bundle(spec *models.ChartSpec, series *models.Series) *models.ChartBundle {
	return &models.ChartBundle{
		ChartType:     spec.ChartType,
		Title:         spec.Title,
		Series:        *series,
		Visualization: spec.Visualization,
		Insights:      spec.Insights,
	}
}

// Total sums every point value in the series.
func Total(series *models.Series) float64 {
	total := 0.0
	for _, p := range series.Points {
		total += p.Value
	}
	return finite(total)
}

// Describe renders a one-line summary of a series for logs and reports.
func Describe(series *models.Series) string {
	if series == nil || len(series.Points) == 0 {
		return "empty series"
	}
	return fmt.Sprintf("%s of %s over %d points", series.Aggregation, series.Field, len(series.Points))
}
