package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"record store retries", NewRecordStoreFailedError(fmt.Errorf("connection refused")), "RECORD_STORE_FAILED", 3},
		{"search maps to store failure", NewSearchQueryFailedError("billing", fmt.Errorf("503")), "RECORD_STORE_FAILED", 3},
		{"oracle timeout", NewOracleTimeoutError(), "ORACLE_UNAVAILABLE", 2},
		{"no data is terminal", NewNoDataAvailableError("empty record set"), "NO_DATA_AVAILABLE", 0},
		{"self grouping is a spec error", NewSelfGroupingError("PatientID"), "CHART_SPEC_INVALID", 0},
		{"unmapped code passes through", NewInternalError(fmt.Errorf("boom")), "INTERNAL_ERROR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNErrorHonoursRetryableFlag(t *testing.T) {
	err := NewRecordStoreFailedError(fmt.Errorf("x"))
	err.Retryable = false
	assert.Equal(t, 0, ConvertToBPMNError(err).Retries)
}

func TestToErrorVariablesIncludesMetadata(t *testing.T) {
	err := NewUnsupportedAggregationError("PatientID", "average").
		WithMetadata("suggestions", []string{"Create a bar chart of number of patients by payment status"})

	vars := ConvertToBPMNError(err).ToErrorVariables()
	assert.Equal(t, "CHART_SPEC_INVALID", vars["errorCode"])
	assert.Equal(t, "UNSUPPORTED_AGGREGATION", vars["originalErrorCode"])
	assert.Equal(t, false, vars["retryable"])
	assert.NotNil(t, vars["suggestions"])
}

func TestNormalize(t *testing.T) {
	std := NewOracleRateLimitedError()
	wrapped := fmt.Errorf("generate spec: %w", std)

	assert.Same(t, std, Normalize(wrapped))

	internal := Normalize(fmt.Errorf("plain failure"))
	require.NotNil(t, internal)
	assert.Equal(t, ErrCodeInternalError, internal.Code)
	assert.Equal(t, "plain failure", internal.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CHART", GetErrorCategory(ErrCodeUnsupportedAggregation))
	assert.Equal(t, "CHART", GetErrorCategory(ErrCodeUnknownGroupingField))
	assert.Equal(t, "DATA", GetErrorCategory(ErrCodeNoDataAvailable))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeOracleTimeout))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternalError))
	assert.True(t, IsRetryableErrorCode(ErrCodeOracleUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeChartSpecInvalid))
}
