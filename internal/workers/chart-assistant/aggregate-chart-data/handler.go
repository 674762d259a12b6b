// internal/workers/chart-assistant/aggregate-chart-data/handler.go
package aggregatechartdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"billing-chart-workers/internal/billing"
	"billing-chart-workers/internal/chart/aggregate"
	"billing-chart-workers/internal/chart/assistant"
	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/chart/validate"
	apperrors "billing-chart-workers/internal/common/errors"
	"billing-chart-workers/internal/common/metrics"
	"billing-chart-workers/internal/models"
)

const (
	TaskType = "aggregate-chart-data"
)

var (
	ErrMissingSpec       = errors.New("MISSING_CHART_SPEC")
	ErrRecordFetchFailed = errors.New("RECORD_FETCH_FAILED")
	ErrRenderFailed      = errors.New("CHART_RENDER_FAILED")
)

// ChartRejectedError carries a user-facing chart error out of execute so
// Handle can raise it as a BPMN error with the suggestions attached.
type ChartRejectedError struct {
	ChartError *models.ChartError
}

func (e *ChartRejectedError) Error() string {
	return fmt.Sprintf("chart rejected [%s]: %s", e.ChartError.Code, e.ChartError.Message)
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config       *Config
	store        billing.RecordStore
	validator    *validate.Validator
	engine       *aggregate.Engine
	logger       Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, store billing.RecordStore, c *catalog.Catalog, log Logger) *Handler {
	if c == nil {
		c = catalog.Default()
	}
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		store:        store,
		validator:    validate.New(c),
		engine:       aggregate.New(c),
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, toStandardError(err))
		return
	}

	h.completeJob(client, job, output)
}

func toStandardError(err error) *apperrors.StandardError {
	var rejected *ChartRejectedError
	if errors.As(err, &rejected) {
		return chartErrorToStandard(rejected.ChartError)
	}
	switch {
	case errors.Is(err, ErrMissingSpec):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, ErrRecordFetchFailed):
		return apperrors.NewRecordStoreFailedError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func chartErrorToStandard(ce *models.ChartError) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	switch ce.Code {
	case assistant.CodeNoData:
		stdErr = apperrors.NewNoDataAvailableError(ce.Message)
	case validate.CodeUnsupportedAggregation:
		stdErr = apperrors.NewChartSpecInvalidError(ce.Message)
		stdErr.Code = apperrors.ErrCodeUnsupportedAggregation
	case validate.CodeUnknownGroupingField:
		stdErr = apperrors.NewChartSpecInvalidError(ce.Message)
		stdErr.Code = apperrors.ErrCodeUnknownGroupingField
	case validate.CodeSelfGrouping:
		stdErr = apperrors.NewChartSpecInvalidError(ce.Message)
		stdErr.Code = apperrors.ErrCodeSelfGrouping
	default:
		stdErr = apperrors.NewChartSpecInvalidError(ce.Message)
	}
	return stdErr.
		WithMetadata("chartError", ce.Message).
		WithMetadata("suggestions", ce.Suggestions)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.ChartSpec == nil {
		return nil, ErrMissingSpec
	}

	records, err := h.store.FetchAllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordFetchFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordFetchFailed, err)
	}

	bundle, chartErr, err := assistant.RenderChart(h.validator, h.engine, input.ChartSpec, records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	if chartErr != nil {
		h.logger.Warn("chart rejected", map[string]interface{}{
			"specId": input.SpecID,
			"code":   chartErr.Code,
		})
		return nil, &ChartRejectedError{ChartError: chartErr}
	}

	h.logger.Info("chart aggregated", map[string]interface{}{
		"specId": input.SpecID,
		"series": aggregate.Describe(&bundle.Series),
	})

	return &Output{
		SpecID:      input.SpecID,
		Chart:       bundle,
		Total:       aggregate.Total(&bundle.Series),
		PointCount:  len(bundle.Series.Points),
		RecordCount: bundle.Series.RecordCount,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
