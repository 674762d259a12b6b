// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Chart assistant errors
const (
	ErrCodeChartSpecInvalid       ErrorCode = "CHART_SPEC_INVALID"
	ErrCodeUnsupportedAggregation ErrorCode = "UNSUPPORTED_AGGREGATION"
	ErrCodeUnknownGroupingField   ErrorCode = "UNKNOWN_GROUPING_FIELD"
	ErrCodeSelfGrouping           ErrorCode = "SELF_GROUPING"
	ErrCodeNoDataAvailable        ErrorCode = "NO_DATA_AVAILABLE"

	ErrCodeOracleUnavailable ErrorCode = "ORACLE_UNAVAILABLE"
	ErrCodeOracleRateLimited ErrorCode = "ORACLE_RATE_LIMITED"
	ErrCodeOracleTimeout     ErrorCode = "ORACLE_TIMEOUT"

	ErrCodeRecordStoreFailed ErrorCode = "RECORD_STORE_FAILED"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the internal error representation.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches one metadata entry and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// BPMNError is what Zeebe receives on a thrown error or failed job.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 2. Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewChartSpecInvalidError(details string) *StandardError {
	return newError(ErrCodeChartSpecInvalid, "Chart specification is invalid", details, false)
}

func NewUnsupportedAggregationError(field, aggregation string) *StandardError {
	return newError(ErrCodeUnsupportedAggregation, "Aggregation not supported for field",
		fmt.Sprintf("field: %s, aggregation: %s", field, aggregation), false)
}

func NewUnknownGroupingFieldError(field string) *StandardError {
	return newError(ErrCodeUnknownGroupingField, "Grouping field cannot be used",
		fmt.Sprintf("groupBy: %s", field), false)
}

func NewSelfGroupingError(field string) *StandardError {
	return newError(ErrCodeSelfGrouping, "A field cannot be grouped by itself",
		fmt.Sprintf("field: %s", field), false)
}

func NewNoDataAvailableError(details string) *StandardError {
	return newError(ErrCodeNoDataAvailable, "No data available", details, false)
}

func NewOracleUnavailableError(err error) *StandardError {
	return newError(ErrCodeOracleUnavailable, "Text generation service unavailable", err.Error(), true)
}

func NewOracleRateLimitedError() *StandardError {
	return newError(ErrCodeOracleRateLimited, "Text generation service rate limited",
		"request rejected by rate limit", true)
}

func NewOracleTimeoutError() *StandardError {
	return newError(ErrCodeOracleTimeout, "Text generation service timeout",
		"call exceeded configured timeout", true)
}

func NewRecordStoreFailedError(err error) *StandardError {
	return newError(ErrCodeRecordStoreFailed, "Billing record store error", err.Error(), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternalError, "Unexpected error", err.Error(), false)
}

// ==========================
// 3. BPMN mapping
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeChartSpecInvalid:       "CHART_SPEC_INVALID",
	ErrCodeUnsupportedAggregation: "CHART_SPEC_INVALID",
	ErrCodeUnknownGroupingField:   "CHART_SPEC_INVALID",
	ErrCodeSelfGrouping:           "CHART_SPEC_INVALID",
	ErrCodeNoDataAvailable:        "NO_DATA_AVAILABLE",
	ErrCodeOracleUnavailable:      "ORACLE_UNAVAILABLE",
	ErrCodeOracleRateLimited:      "ORACLE_UNAVAILABLE",
	ErrCodeOracleTimeout:          "ORACLE_UNAVAILABLE",
	ErrCodeRecordStoreFailed:      "RECORD_STORE_FAILED",
	ErrCodeSearchQueryFailed:      "RECORD_STORE_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeInvalidInput:           "INVALID_INPUT",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRecordStoreFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeOracleUnavailable:
		return 3
	case ErrCodeOracleTimeout,
		ErrCodeOracleRateLimited:
		return 2
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CHART") || strings.Contains(codeStr, "AGGREGATION") ||
		strings.Contains(codeStr, "GROUPING"):
		return "CHART"
	case strings.Contains(codeStr, "NO_DATA"):
		return "DATA"
	case strings.Contains(codeStr, "ORACLE"):
		return "AI"
	case strings.Contains(codeStr, "RECORD_STORE") || strings.Contains(codeStr, "SEARCH"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
