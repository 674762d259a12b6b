// internal/models/series.go
package models

type SeriesKind string

const (
	SeriesKindCategory SeriesKind = "category"
	SeriesKindTime     SeriesKind = "time"
	SeriesKindSingle   SeriesKind = "single"
)

// OthersLabel is the synthetic group collecting entries beyond a limit.
const OthersLabel = "Others"

// TotalLabel is the key of a single ungrouped aggregate.
const TotalLabel = "total"

// Series is the ordered output of the aggregation engine.
type Series struct {
	Kind        SeriesKind    `json:"kind"`
	Field       string        `json:"field"`
	Aggregation Aggregation   `json:"aggregation"`
	GroupBy     string        `json:"groupBy,omitempty"`
	Points      []SeriesPoint `json:"points"`
	RecordCount int           `json:"recordCount"`
}

type SeriesPoint struct {
	Label        string        `json:"label"`
	Value        float64       `json:"value"`
	DisplayValue string        `json:"displayValue"`
	Metadata     PointMetadata `json:"metadata"`
}

// PointMetadata keeps the unformatted key for renderer tooltips.
type PointMetadata struct {
	OriginalKey string `json:"originalKey"`
	Field       string `json:"field"`
}

// ChartBundle is what chart renderers consume, keyed by ChartType.
type ChartBundle struct {
	ChartType     ChartType     `json:"chartType"`
	Title         string        `json:"title"`
	Series        Series        `json:"series"`
	Visualization Visualization `json:"visualization"`
	Insights      string        `json:"insights"`
}
