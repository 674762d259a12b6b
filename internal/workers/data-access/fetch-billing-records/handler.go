// internal/workers/data-access/fetch-billing-records/handler.go
package fetchbillingrecords

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"billing-chart-workers/internal/billing"
	"billing-chart-workers/internal/chart/summary"
	apperrors "billing-chart-workers/internal/common/errors"
	"billing-chart-workers/internal/common/logger"
	"billing-chart-workers/internal/common/metrics"
	"billing-chart-workers/internal/models"
)

const (
	TaskType = "fetch-billing-records"
)

var (
	ErrInvalidLimit       = errors.New("INVALID_LIMIT")
	ErrQueryTimeout       = errors.New("QUERY_TIMEOUT")
	ErrQueryFailed        = errors.New("QUERY_EXECUTION_FAILED")
	ErrCacheRefreshFailed = errors.New("CACHE_REFRESH_FAILED")
)

// Invalidator is implemented by caching stores.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Handler struct {
	config       *Config
	store        billing.RecordStore
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, store billing.RecordStore, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
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
		h.failJob(client, job, h.toStandardError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidLimit):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, ErrQueryTimeout):
		return apperrors.NewRecordStoreFailedError(err).WithMetadata("timeout", true)
	case errors.Is(err, billing.ErrSearchFailed):
		return apperrors.NewSearchQueryFailedError(h.config.Source, err)
	default:
		return apperrors.NewRecordStoreFailedError(err)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}
	if input.Limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, input.Limit)
	}

	if input.Refresh {
		if inv, ok := h.store.(Invalidator); ok {
			if err := inv.Invalidate(ctx); err != nil {
				h.logger.Warn("cache refresh failed", map[string]interface{}{
					"error": fmt.Errorf("%w: %v", ErrCacheRefreshFailed, err).Error(),
				})
			}
		}
	}

	start := time.Now()
	records, err := h.store.FetchAllRecords(ctx)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrQueryTimeout
		}
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	output := &Output{
		TotalRecords:       len(records),
		Source:             h.config.Source,
		QueryExecutionTime: elapsed,
	}

	if input.IncludeSummary && len(records) > 0 {
		s, err := summary.Build(records, h.config.PaymentStatuses, h.config.RecentRecords)
		if err == nil {
			output.Summary = s
		}
	}

	if input.Limit > 0 && input.Limit < len(records) {
		records = records[:input.Limit]
	}
	if records == nil {
		records = []models.Record{}
	}
	output.Records = records
	output.RecordCount = len(records)

	h.logger.Info("billing records fetched", map[string]interface{}{
		"recordCount":  output.RecordCount,
		"totalRecords": output.TotalRecords,
		"durationMs":   elapsed,
	})
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
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
