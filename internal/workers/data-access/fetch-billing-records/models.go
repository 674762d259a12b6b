package fetchbillingrecords

import (
	"billing-chart-workers/internal/chart/summary"
	"billing-chart-workers/internal/models"
)

type Input struct {
	// Limit caps the returned records; zero returns the full set.
	Limit          int  `json:"limit,omitempty"`
	IncludeSummary bool `json:"includeSummary,omitempty"`
	// Refresh drops the cached record set before reading.
	Refresh bool `json:"refresh,omitempty"`
}

type Output struct {
	Records            []models.Record         `json:"records"`
	RecordCount        int                     `json:"recordCount"`
	TotalRecords       int                     `json:"totalRecords"`
	Summary            *summary.BillingSummary `json:"summary,omitempty"`
	Source             string                  `json:"source"`
	QueryExecutionTime int64                   `json:"queryExecutionTime"` // milliseconds
}
