// internal/chart/oracle/oracle.go
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	commonhttp "billing-chart-workers/internal/common/http"
	"billing-chart-workers/internal/common/metrics"
	"billing-chart-workers/internal/common/observability"
)

var (
	ErrUnavailable = errors.New("ORACLE_UNAVAILABLE")
	ErrRateLimited = errors.New("ORACLE_RATE_LIMITED")
	ErrTimeout     = errors.New("ORACLE_TIMEOUT")
)

// Oracle turns a prompt into free text. Any error means the oracle is
// unavailable for this request.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

const GeneratePath = "/api/ai/generate"

type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	// RateLimit is requests per second; zero disables client-side limiting.
	RateLimit float64
	Burst     int
}

// GenAIClient calls the generative text service over HTTP. Each call is a
// single attempt.
type GenAIClient struct {
	config  Config
	client  *commonhttp.Client
	limiter *rate.Limiter
}

func NewGenAIClient(cfg Config) *GenAIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	c := &GenAIClient{
		config: cfg,
		// The per-call context carries the deadline.
		client: commonhttp.NewClient(0),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (c *GenAIClient) Generate(ctx context.Context, prompt string) (text string, err error) {
	ctx, span := observability.StartSpan(ctx, "oracle.generate",
		attribute.Int("prompt.length", len(prompt)),
	)
	start := time.Now()
	defer func() {
		metrics.OracleRequestDuration.Observe(time.Since(start).Seconds())
		metrics.OracleRequests.WithLabelValues(outcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	if c.limiter != nil && !c.limiter.Allow() {
		return "", ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	headers := map[string]string{}
	if c.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.config.APIKey
	}

	resp, err := c.client.PostJSON(ctx, strings.TrimRight(c.config.BaseURL, "/")+GeneratePath, generateRequest{
		Prompt:      prompt,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}, headers)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return out.Text, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
