package generatechartspec

import (
	"billing-chart-workers/internal/chart/generator"
	"billing-chart-workers/internal/models"
)

type Input struct {
	Message string `json:"message"`
}

// Output is either a validated chart spec or a user-facing chart error.
// HasChartError lets the process branch without inspecting nested objects.
type Output struct {
	SpecID         string             `json:"specId"`
	ChartSpec      *models.ChartSpec  `json:"chartSpec,omitempty"`
	ChartError     *models.ChartError `json:"chartError,omitempty"`
	HasChartError  bool               `json:"hasChartError"`
	Source         generator.Source   `json:"source"`
	FallbackReason string             `json:"fallbackReason,omitempty"`
}
