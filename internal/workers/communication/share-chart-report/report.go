package sharechartreport

import (
	"fmt"
	"strings"

	"billing-chart-workers/internal/chart/aggregate"
	"billing-chart-workers/internal/models"
)

const smsPoints = 3

// RenderReport lays a chart bundle out as a plain-text email body.
func RenderReport(bundle *models.ChartBundle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", bundle.Title)
	b.WriteString(strings.Repeat("=", len(bundle.Title)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Chart: %s (%s)\n\n", bundle.ChartType, aggregate.Describe(&bundle.Series))

	for _, p := range bundle.Series.Points {
		fmt.Fprintf(&b, "  %-24s %s\n", p.Label, p.DisplayValue)
	}

	fmt.Fprintf(&b, "\nRecords analysed: %d\n", bundle.Series.RecordCount)
	if bundle.Insights != "" {
		fmt.Fprintf(&b, "\n%s\n", bundle.Insights)
	}
	return b.String()
}

// RenderSMS is a single-message summary: the title and the leading points.
func RenderSMS(bundle *models.ChartBundle) string {
	parts := make([]string, 0, smsPoints)
	for i, p := range bundle.Series.Points {
		if i == smsPoints {
			break
		}
		parts = append(parts, fmt.Sprintf("%s %s", p.Label, p.DisplayValue))
	}
	msg := bundle.Title
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, ", ")
	}
	if extra := len(bundle.Series.Points) - smsPoints; extra > 0 {
		msg += fmt.Sprintf(" (+%d more)", extra)
	}
	return msg
}
