// internal/chart/aggregate/format.go
package aggregate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"billing-chart-workers/internal/models"
)

// MaxLabelLength is the rune length after which category labels are cut.
const MaxLabelLength = 20

var currencyHints = []string{"charge", "amount", "revenue", "cost"}

// FormatValue renders an aggregated value the way the field reads:
// money as whole dollars, percentages with one decimal, whole numbers
// grouped, everything else with two decimals.
func FormatValue(field string, agg models.Aggregation, value float64) string {
	if agg == models.AggregationCount {
		return FormatInt(int64(math.Round(value)))
	}

	lower := strings.ToLower(field)
	for _, hint := range currencyHints {
		if strings.Contains(lower, hint) {
			return FormatCurrency(value)
		}
	}
	if strings.Contains(lower, "percent") {
		return fmt.Sprintf("%.1f%%", value)
	}
	if value == math.Trunc(value) && math.Abs(value) < 1e15 {
		return FormatInt(int64(value))
	}
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// FormatCurrency formats whole US dollars with comma grouping.
func FormatCurrency(amount float64) string {
	rounded := math.Round(amount)
	if rounded < 0 {
		return "-$" + FormatInt(int64(-rounded))
	}
	return "$" + FormatInt(int64(rounded))
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

// FormatTimeLabel turns a bucket key into a short human label.
func FormatTimeLabel(key string, grouping models.TimeGrouping) string {
	switch grouping {
	case models.TimeGroupingDaily, models.TimeGroupingWeekly:
		if t, err := time.Parse("2006-01-02", key); err == nil {
			return t.Format("Jan 2")
		}
	case models.TimeGroupingMonthly:
		if t, err := time.Parse("2006-01", key); err == nil {
			return t.Format("Jan 06")
		}
	case models.TimeGroupingQuarterly:
		if year, q, ok := strings.Cut(key, "-"); ok {
			return q + " " + year
		}
	}
	return key
}

// TruncateLabel shortens long category labels to MaxLabelLength runes.
func TruncateLabel(label string) string {
	if utf8.RuneCountInString(label) <= MaxLabelLength {
		return label
	}
	runes := []rune(label)
	return string(runes[:MaxLabelLength]) + "..."
}

// periodKey maps a date onto its bucket key.
func periodKey(t time.Time, grouping models.TimeGrouping) string {
	t = t.UTC()
	switch grouping {
	case models.TimeGroupingDaily:
		return t.Format("2006-01-02")
	case models.TimeGroupingWeekly:
		start := t.AddDate(0, 0, -int(t.Weekday()))
		return start.Format("2006-01-02")
	case models.TimeGroupingQuarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case models.TimeGroupingYearly:
		return strconv.Itoa(t.Year())
	default:
		return t.Format("2006-01")
	}
}
