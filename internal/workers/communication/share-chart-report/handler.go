// internal/workers/communication/share-chart-report/handler.go
package sharechartreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	apperrors "billing-chart-workers/internal/common/errors"
	"billing-chart-workers/internal/common/logger"
	"billing-chart-workers/internal/common/metrics"
)

const TaskType = "share-chart-report"

var (
	ErrMissingChart      = errors.New("MISSING_CHART")
	ErrNoRecipient       = errors.New("NO_RECIPIENT")
	ErrInvalidRecipient  = errors.New("INVALID_RECIPIENT")
	ErrDeliveryFailed    = errors.New("DELIVERY_FAILED")
	ErrChannelNotEnabled = errors.New("CHANNEL_NOT_ENABLED")
)

type EmailSender interface {
	SendText(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) (string, error)
}

type Handler struct {
	config       *Config
	email        EmailSender
	sms          SMSSender
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

type HandlerOptions struct {
	Config *Config
	Email  EmailSender
	SMS    SMSSender
	Logger logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		email:        opts.Email,
		sms:          opts.SMS,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}, nil
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
	if errors.Is(err, ErrDeliveryFailed) {
		return apperrors.NewNotificationSendFailedError("chart-report", err)
	}
	return apperrors.NewInvalidInputError(err.Error())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Chart == nil {
		return nil, ErrMissingChart
	}
	channels, err := h.channels(input)
	if err != nil {
		return nil, err
	}

	subject := input.Subject
	if subject == "" {
		subject = "Billing report: " + input.Chart.Title
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		MessageIDs:     map[string]string{},
		Failures:       map[string]string{},
	}

	for _, ch := range channels {
		var (
			id  string
			err error
		)
		switch ch {
		case ChannelEmail:
			id, err = h.email.SendText(ctx, h.config.FromEmail, []string{input.Email}, subject, RenderReport(input.Chart))
		case ChannelSMS:
			id, err = h.sms.SendSMS(ctx, input.PhoneNumber, RenderSMS(input.Chart))
		}
		if err != nil {
			h.logger.Warn("report delivery failed", map[string]interface{}{
				"channel":        ch,
				"notificationId": output.NotificationID,
				"error":          err.Error(),
			})
			output.Failures[ch] = err.Error()
			continue
		}
		output.Channels = append(output.Channels, ch)
		output.MessageIDs[ch] = id
	}

	if len(output.Channels) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDeliveryFailed, joinFailures(output.Failures))
	}

	output.Status = StatusSent
	if len(output.Failures) > 0 {
		output.Status = StatusPartial
	} else {
		output.Failures = nil
	}
	output.SentAt = time.Now().UTC()

	h.logger.Info("chart report shared", map[string]interface{}{
		"notificationId": output.NotificationID,
		"specId":         input.SpecID,
		"channels":       output.Channels,
		"status":         output.Status,
	})
	return output, nil
}

// channels returns the delivery channels the input asks for, in a fixed
// order, after validating each recipient.
func (h *Handler) channels(input *Input) ([]string, error) {
	var out []string
	if input.Email != "" {
		if !h.config.EmailEnabled || h.email == nil {
			return nil, fmt.Errorf("%w: %s", ErrChannelNotEnabled, ChannelEmail)
		}
		if !isValidEmail(input.Email) {
			return nil, fmt.Errorf("%w: email %q", ErrInvalidRecipient, input.Email)
		}
		out = append(out, ChannelEmail)
	}
	if input.PhoneNumber != "" {
		if !h.config.SMSEnabled || h.sms == nil {
			return nil, fmt.Errorf("%w: %s", ErrChannelNotEnabled, ChannelSMS)
		}
		if !isE164(input.PhoneNumber) {
			return nil, fmt.Errorf("%w: phone %q", ErrInvalidRecipient, input.PhoneNumber)
		}
		out = append(out, ChannelSMS)
	}
	if len(out) == 0 {
		return nil, ErrNoRecipient
	}
	return out, nil
}

func isValidEmail(email string) bool {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return strings.Contains(parts[1], ".")
}

// isE164 accepts "+" followed by 8 to 15 digits.
func isE164(phone string) bool {
	if len(phone) < 9 || len(phone) > 16 || phone[0] != '+' {
		return false
	}
	for _, r := range phone[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func joinFailures(failures map[string]string) string {
	keys := make([]string, 0, len(failures))
	for k := range failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+failures[k])
	}
	return strings.Join(parts, "; ")
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
