// internal/chart/assistant/assistant.go
package assistant

import (
	"context"
	"strings"

	"billing-chart-workers/internal/billing"
	"billing-chart-workers/internal/chart/aggregate"
	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/chart/conversation"
	"billing-chart-workers/internal/chart/generator"
	"billing-chart-workers/internal/chart/intent"
	"billing-chart-workers/internal/chart/summary"
	"billing-chart-workers/internal/chart/validate"
	"billing-chart-workers/internal/models"
)

type Kind string

const (
	KindChart Kind = "chart"
	KindText  Kind = "text"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

type Request struct {
	Message string              `json:"message"`
	History []conversation.Turn `json:"history,omitempty"`
}

// Response is one assistant turn: a chart, a chart error, or text.
type Response struct {
	Kind           Kind                `json:"type"`
	Text           string              `json:"response,omitempty"`
	Chart          *models.ChartBundle `json:"chart,omitempty"`
	ChartSpec      *models.ChartSpec   `json:"chartSpec,omitempty"`
	ChartError     *models.ChartError  `json:"chartError,omitempty"`
	Source         generator.Source    `json:"source,omitempty"`
	FallbackReason string              `json:"fallbackReason,omitempty"`
	MatchedRule    string              `json:"matchedRule"`
	Degraded       bool                `json:"degraded,omitempty"`
}

type Config struct {
	PaymentStatuses []string
	SampleSize      int
	RecentRecords   int
}

type Assistant struct {
	store     billing.RecordStore
	generator *generator.Generator
	responder *conversation.Responder
	validator *validate.Validator
	engine    *aggregate.Engine
	config    Config
	logger    Logger
}

func New(store billing.RecordStore, gen *generator.Generator, responder *conversation.Responder, c *catalog.Catalog, cfg Config, log Logger) *Assistant {
	if c == nil {
		c = catalog.Default()
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 5
	}
	if cfg.RecentRecords <= 0 {
		cfg.RecentRecords = summary.DefaultRecentMax
	}
	if len(cfg.PaymentStatuses) == 0 {
		cfg.PaymentStatuses = c.PaymentStatuses()
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Assistant{
		store:     store,
		generator: gen,
		responder: responder,
		validator: validate.New(c),
		engine:    aggregate.New(c),
		config:    cfg,
		logger:    log,
	}
}

// Respond routes one utterance. The only error returned is the caller's
// context error.
func (a *Assistant) Respond(ctx context.Context, req Request) (*Response, error) {
	message := strings.TrimSpace(req.Message)
	class := intent.Classify(message)

	var (
		resp *Response
		err  error
	)
	if class.IsChartRequest {
		resp, err = a.chart(ctx, message)
	} else {
		resp, err = a.answer(ctx, message, req.History)
	}
	if err != nil {
		return nil, err
	}
	resp.MatchedRule = class.Rule.String()
	return resp, nil
}

// Chart runs the chart path whatever the classification says. MatchedRule
// still reports the classifier's view of the message.
func (a *Assistant) Chart(ctx context.Context, message string) (*Response, error) {
	message = strings.TrimSpace(message)
	resp, err := a.chart(ctx, message)
	if err != nil {
		return nil, err
	}
	resp.MatchedRule = intent.Classify(message).Rule.String()
	return resp, nil
}

func (a *Assistant) fetch(ctx context.Context) []models.Record {
	records, err := a.store.FetchAllRecords(ctx)
	if err != nil {
		a.logger.Warn("billing records unavailable", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return records
}

func (a *Assistant) chart(ctx context.Context, message string) (*Response, error) {
	records := a.fetch(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := a.generator.Generate(ctx, message, billing.Sample(records, a.config.SampleSize))
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Kind:           KindChart,
		Source:         result.Source,
		FallbackReason: result.FallbackReason,
	}
	if result.Error != nil {
		resp.ChartError = result.Error
		resp.Text = result.Error.Message
		return resp, nil
	}
	resp.ChartSpec = result.Spec

	bundle, chartErr, err := RenderChart(a.validator, a.engine, result.Spec, records)
	if err != nil {
		a.logger.Error("chart rendering failed", map[string]interface{}{
			"error":     err.Error(),
			"dataField": result.Spec.DataField,
		})
		resp.ChartError = &models.ChartError{Message: "The chart could not be built. Please try rephrasing the request."}
		resp.Text = resp.ChartError.Message
		return resp, nil
	}
	if chartErr != nil {
		resp.ChartError = chartErr
		resp.Text = chartErr.Message
		return resp, nil
	}

	resp.Chart = bundle
	resp.Text = bundle.Insights
	a.logger.Info("chart built", map[string]interface{}{
		"chartType": bundle.ChartType,
		"source":    result.Source,
		"series":    aggregate.Describe(&bundle.Series),
	})
	return resp, nil
}

func (a *Assistant) answer(ctx context.Context, message string, history []conversation.Turn) (*Response, error) {
	if message == "" {
		return &Response{Kind: KindText, Text: "Please ask a question about your billing data."}, nil
	}

	var s *summary.BillingSummary
	if records := a.fetch(ctx); len(records) > 0 {
		built, err := summary.Build(records, a.config.PaymentStatuses, a.config.RecentRecords)
		if err == nil {
			s = built
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ans, err := a.responder.Answer(ctx, message, history, s)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		a.logger.Error("conversation answer failed", map[string]interface{}{"error": err.Error()})
		return &Response{Kind: KindText, Text: conversation.Apology, Degraded: true}, nil
	}
	return &Response{Kind: KindText, Text: ans.Text, Degraded: ans.Degraded}, nil
}
