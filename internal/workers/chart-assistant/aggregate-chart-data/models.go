package aggregatechartdata

import "billing-chart-workers/internal/models"

type Input struct {
	SpecID    string            `json:"specId"`
	ChartSpec *models.ChartSpec `json:"chartSpec"`
}

type Output struct {
	SpecID      string              `json:"specId"`
	Chart       *models.ChartBundle `json:"chart"`
	Total       float64             `json:"chartTotal"`
	PointCount  int                 `json:"pointCount"`
	RecordCount int                 `json:"recordCount"`
}
