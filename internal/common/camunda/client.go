// internal/common/camunda/client.go
package camunda

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/cenkalti/backoff/v4"
)

var (
	ErrBrokerUnavailable = errors.New("ZEEBE_UNAVAILABLE")
	ErrBrokerTimeout     = errors.New("ZEEBE_TIMEOUT")
	ErrBrokerRejected    = errors.New("ZEEBE_REJECTED")
)

type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

func NewClient(address string) (*Client, error) {
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         30 * time.Second,
		RetryConfig:            DefaultRetryConfig,
	})
}

// NewClientWithConfig creates the gateway client and waits for a topology
// response, retrying transient failures under the retry config.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: config}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()

	_, err = c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return zeebeClient.NewTopologyCommand().Send(ctx)
	}, "topology")
	if err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}
	return c, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	rc := c.config.RetryConfig
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = rc.BaseDelay
	exp.MaxInterval = rc.MaxDelay
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(rc.MaxRetries)), ctx)
}

// ExecuteWithRetry runs commandFunc until it succeeds, fails with a
// non-transient error, or exhausts MaxRetries. The returned error wraps one
// of the ErrBroker sentinels.
func (c *Client) ExecuteWithRetry(
	ctx context.Context,
	commandFunc func(context.Context) (interface{}, error),
	operationName string,
) (interface{}, error) {
	var (
		result   interface{}
		attempts int
	)

	operation := func() error {
		attempts++
		var err error
		result, err = commandFunc(ctx)
		if err != nil && !isRetryableZeebeError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(operation, c.newBackOff(ctx)); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("operation %s cancelled after %d attempts: %w", operationName, attempts, err)
		}
		return nil, mapZeebeError(err, operationName, attempts)
	}
	return result, nil
}

var retryablePhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func mapZeebeError(err error, operation string, attempts int) error {
	lower := strings.ToLower(err.Error())

	prefix := fmt.Sprintf("zeebe operation '%s' failed", operation)
	if attempts > 1 {
		prefix += fmt.Sprintf(" after %d attempts", attempts)
	}

	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return fmt.Errorf("%w: %s: %v", ErrBrokerTimeout, prefix, err)
	case strings.Contains(lower, "not found") ||
		strings.Contains(lower, "already exists") ||
		strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "unauthorized"):
		return fmt.Errorf("%w: %s: %v", ErrBrokerRejected, prefix, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrBrokerUnavailable, prefix, err)
	}
}

func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
