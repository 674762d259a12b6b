// internal/billing/store.go
package billing

import (
	"context"
	"errors"
	"sort"

	"billing-chart-workers/internal/models"
)

var (
	ErrStoreFailed  = errors.New("RECORD_STORE_FAILED")
	ErrSearchFailed = errors.New("SEARCH_QUERY_FAILED")
)

// RecordStore returns the complete billing record set, newest admission
// first. Implementations never paginate.
type RecordStore interface {
	FetchAllRecords(ctx context.Context) ([]models.Record, error)
}

// Sample returns up to n leading records for oracle grounding.
func Sample(records []models.Record, n int) []models.Record {
	if n <= 0 || len(records) == 0 {
		return nil
	}
	if n > len(records) {
		n = len(records)
	}
	return records[:n]
}

// sortNewestFirst orders records by AdmissionDate descending. Undated
// records go last and ties keep their order.
func sortNewestFirst(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, okI := records[i].Date(models.FieldAdmissionDate)
		tj, okJ := records[j].Date(models.FieldAdmissionDate)
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
}
