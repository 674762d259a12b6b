// internal/chart/assistant/render.go
package assistant

import (
	"errors"
	"fmt"

	"billing-chart-workers/internal/chart/aggregate"
	"billing-chart-workers/internal/chart/validate"
	"billing-chart-workers/internal/common/validation"
	"billing-chart-workers/internal/models"
)

const CodeNoData = "NO_DATA_AVAILABLE"

var ErrBundleInvalid = errors.New("chart bundle failed schema check")

// NoDataError is the user-facing error for an empty record set or filter.
func NoDataError() *models.ChartError {
	return &models.ChartError{
		Message: "No data available for this chart.",
		Code:    CodeNoData,
		Suggestions: []string{
			"Try removing the date range or value threshold",
			"Check that billing records have been loaded",
		},
	}
}

// RenderChart re-validates spec, aggregates records and packages the bundle.
// User-facing failures come back as a ChartError; the error return is for
// internal faults only.
func RenderChart(v *validate.Validator, e *aggregate.Engine, spec *models.ChartSpec, records []models.Record) (*models.ChartBundle, *models.ChartError, error) {
	if spec == nil {
		return nil, &models.ChartError{Message: "No chart specification was provided.", Code: validate.CodeUnknownField}, nil
	}
	if res := v.ValidateSpec(spec); !res.Valid {
		return nil, res.ChartError(), nil
	}

	series, err := e.Aggregate(spec, records)
	switch {
	case errors.Is(err, aggregate.ErrNoData):
		return nil, NoDataError(), nil
	case errors.Is(err, aggregate.ErrInvalidSpec):
		return nil, &models.ChartError{
			Message:     "The chart filters could not be applied.",
			Code:        validate.CodeUnknownField,
			Suggestions: []string{`Use a date range like "2024-01-01,2024-06-30"`},
		}, nil
	case err != nil:
		return nil, nil, err
	}

	bundle := aggregate.Bundle(spec, series)
	if res := validation.ValidateChartBundle(bundle); !res.Valid {
		return nil, nil, fmt.Errorf("%w: %v", ErrBundleInvalid, res.Err())
	}
	return bundle, nil, nil
}
