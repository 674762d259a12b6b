// internal/workers/chart-assistant/answer-billing-question/handler.go
package answerbillingquestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"billing-chart-workers/internal/billing"
	"billing-chart-workers/internal/chart/conversation"
	"billing-chart-workers/internal/chart/oracle"
	"billing-chart-workers/internal/chart/summary"
	apperrors "billing-chart-workers/internal/common/errors"
	"billing-chart-workers/internal/common/metrics"
	"billing-chart-workers/internal/models"
)

const (
	TaskType = "answer-billing-question"
)

var (
	ErrMissingMessage = errors.New("MISSING_MESSAGE")
	ErrAnswerFailed   = errors.New("ANSWER_FAILED")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config       *Config
	store        billing.RecordStore
	responder    *conversation.Responder
	logger       Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, store billing.RecordStore, responder *conversation.Responder, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		store:        store,
		responder:    responder,
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
	switch {
	case errors.Is(err, ErrMissingMessage):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, oracle.ErrRateLimited):
		return apperrors.NewOracleRateLimitedError()
	case errors.Is(err, oracle.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewOracleTimeoutError()
	default:
		return apperrors.NewOracleUnavailableError(err)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrMissingMessage)
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrMissingMessage
	}

	records := h.fetch(ctx)

	var s *summary.BillingSummary
	if len(records) > 0 {
		built, err := summary.Build(records, h.config.PaymentStatuses, h.config.RecentRecords)
		if err == nil {
			s = built
		}
	}

	answer, err := h.responder.Answer(ctx, message, input.History, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnswerFailed, err)
	}

	h.logger.Info("question answered", map[string]interface{}{
		"degraded":    answer.Degraded,
		"recordCount": len(records),
	})

	return &Output{
		Answer:      answer.Text,
		Degraded:    answer.Degraded,
		RecordCount: len(records),
	}, nil
}

// fetch loads the data context. Without records the answer is degraded,
// not failed.
func (h *Handler) fetch(ctx context.Context) []models.Record {
	if h.store == nil {
		return nil
	}
	records, err := h.store.FetchAllRecords(ctx)
	if err != nil {
		h.logger.Warn("billing records unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return records
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
