// internal/chart/generator/generator.go
package generator

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"billing-chart-workers/internal/chart/catalog"
	"billing-chart-workers/internal/chart/fallback"
	"billing-chart-workers/internal/chart/oracle"
	"billing-chart-workers/internal/chart/validate"
	"billing-chart-workers/internal/common/metrics"
	"billing-chart-workers/internal/common/observability"
	"billing-chart-workers/internal/models"
)

type Source string

const (
	SourceOracle   Source = "oracle"
	SourceFallback Source = "fallback"
)

// Fallback reasons, also used as metric labels.
const (
	ReasonRateLimited = "rate_limited"
	ReasonTimeout     = "timeout"
	ReasonUnavailable = "unavailable"
	ReasonMalformed   = "malformed_response"
	ReasonSchema      = "schema_mismatch"
	ReasonInvalidSpec = "invalid_spec"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, map[string]interface{}) {}
func (nopLogger) Warn(string, map[string]interface{}) {}

type Config struct {
	ExplainEnabled   bool
	ExplainMinLength int
}

// Result carries either a validated spec or the user-facing chart error.
type Result struct {
	Spec           *models.ChartSpec  `json:"chartSpec,omitempty"`
	Error          *models.ChartError `json:"chartError,omitempty"`
	Source         Source             `json:"source"`
	FallbackReason string             `json:"fallbackReason,omitempty"`
	Explained      bool               `json:"explained,omitempty"`
}

type Generator struct {
	oracle    oracle.Oracle
	catalog   *catalog.Catalog
	parser    *fallback.Parser
	validator *validate.Validator
	config    Config
	logger    Logger
}

func New(o oracle.Oracle, c *catalog.Catalog, cfg Config, log Logger) *Generator {
	if c == nil {
		c = catalog.Default()
	}
	if cfg.ExplainMinLength <= 0 {
		cfg.ExplainMinLength = 40
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Generator{
		oracle:    o,
		catalog:   c,
		parser:    fallback.New(c),
		validator: validate.New(c),
		config:    cfg,
		logger:    log,
	}
}

// Generate asks the oracle for a spec and falls back to the keyword parser
// exactly once on any oracle failure or invalid output. The only error
// returned is the caller's context error; the result is then dropped.
func (g *Generator) Generate(ctx context.Context, utterance string, sample []models.Record) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, "chart.generate_spec")
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()

	if g.oracle == nil {
		return g.fallback(utterance, ReasonUnavailable, nil), nil
	}

	text, err := g.oracle.Generate(ctx, BuildPrompt(utterance, g.catalog, sample))
	if ctxErr := ctx.Err(); ctxErr != nil {
		spanErr = ctxErr
		return nil, ctxErr
	}
	if err != nil {
		return g.fallback(utterance, oracleReason(err), err), nil
	}

	spec, err := parseSpec(text, g.catalog)
	if err != nil {
		reason := ReasonMalformed
		if errors.Is(err, ErrSchemaMismatch) {
			reason = ReasonSchema
		}
		return g.fallback(utterance, reason, err), nil
	}

	if res := g.validator.ValidateSpec(spec); !res.Valid {
		g.logger.Warn("oracle spec rejected by validator", map[string]interface{}{
			"code":      res.Code,
			"reason":    res.Reason,
			"dataField": spec.DataField,
			"groupBy":   spec.GroupingField(),
		})
		return g.fallback(utterance, ReasonInvalidSpec, nil), nil
	}

	result := &Result{Spec: spec, Source: SourceOracle}
	if g.config.ExplainEnabled && needsExplanation(spec.Insights, g.config.ExplainMinLength) {
		result.Explained = g.explain(ctx, utterance, spec)
	}

	span.SetAttributes(
		attribute.String("chart.source", string(SourceOracle)),
		attribute.String("chart.type", string(spec.ChartType)),
	)
	metrics.ChartSpecsGenerated.WithLabelValues(string(SourceOracle)).Inc()
	return result, nil
}

// explain replaces weak insights with a short explanation. Any failure,
// including running out of time, keeps the original insights.
func (g *Generator) explain(ctx context.Context, utterance string, spec *models.ChartSpec) bool {
	ctx, cancel, ok := explainContext(ctx)
	if !ok {
		return false
	}
	defer cancel()

	text, err := g.oracle.Generate(ctx, BuildExplainPrompt(utterance, spec, g.catalog))
	if err != nil {
		g.logger.Warn("chart explanation unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	explanation := cleanExplanation(text)
	if explanation == "" {
		return false
	}
	spec.Insights = explanation
	return true
}

// explainContext gives the explain call at most half of the time left on
// ctx so the primary spec can still be returned.
func explainContext(ctx context.Context) (context.Context, context.CancelFunc, bool) {
	if ctx.Err() != nil {
		return nil, nil, false
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		c, cancel := context.WithCancel(ctx)
		return c, cancel, true
	}
	budget := time.Until(deadline) / 2
	if budget <= 0 {
		return nil, nil, false
	}
	c, cancel := context.WithTimeout(ctx, budget)
	return c, cancel, true
}

func (g *Generator) fallback(utterance, reason string, cause error) *Result {
	fields := map[string]interface{}{"reason": reason}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	g.logger.Info("using fallback chart parser", fields)
	metrics.ChartFallbacks.WithLabelValues(reason).Inc()

	spec, chartErr := g.parser.Parse(utterance)
	result := &Result{Source: SourceFallback, FallbackReason: reason}
	if chartErr != nil {
		result.Error = chartErr
		return result
	}
	result.Spec = spec
	metrics.ChartSpecsGenerated.WithLabelValues(string(SourceFallback)).Inc()
	return result
}

func oracleReason(err error) string {
	switch {
	case errors.Is(err, oracle.ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, oracle.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonUnavailable
	}
}
