// internal/workers/chart-assistant/generate-chart-spec/handler.go
package generatechartspec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"billing-chart-workers/internal/billing"
	"billing-chart-workers/internal/chart/generator"
	apperrors "billing-chart-workers/internal/common/errors"
	"billing-chart-workers/internal/common/metrics"
	"billing-chart-workers/internal/models"
)

const (
	TaskType = "generate-chart-spec"
)

var (
	ErrMissingMessage    = errors.New("MISSING_MESSAGE")
	ErrGenerationTimeout = errors.New("GENERATION_TIMEOUT")
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
	generator    *generator.Generator
	logger       Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, store billing.RecordStore, gen *generator.Generator, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:       config,
		store:        store,
		generator:    gen,
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
		switch {
		case errors.Is(err, ErrGenerationTimeout):
			h.failJob(client, job, apperrors.NewOracleTimeoutError())
		default:
			h.failJob(client, job, apperrors.NewInvalidInputError(err.Error()))
		}
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrMissingMessage
	}

	sample := h.sample(ctx)

	result, err := h.generator.Generate(ctx, message, sample)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
	}

	output := &Output{
		SpecID:         uuid.New().String(),
		ChartSpec:      result.Spec,
		ChartError:     result.Error,
		HasChartError:  result.Error != nil,
		Source:         result.Source,
		FallbackReason: result.FallbackReason,
	}

	fields := map[string]interface{}{
		"specId": output.SpecID,
		"source": result.Source,
	}
	if result.FallbackReason != "" {
		fields["fallbackReason"] = result.FallbackReason
	}
	if result.Error != nil {
		fields["chartErrorCode"] = result.Error.Code
	}
	h.logger.Info("chart spec generated", fields)

	return output, nil
}

// sample grounds the oracle prompt with a few records. A store failure
// only costs the grounding.
func (h *Handler) sample(ctx context.Context) []models.Record {
	if h.store == nil {
		return nil
	}
	records, err := h.store.FetchAllRecords(ctx)
	if err != nil {
		h.logger.Warn("record sample unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return billing.Sample(records, h.config.SampleSize)
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
