package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"cmdrelay/internal/logging"
	"cmdrelay/internal/ports"

	"google.golang.org/genai"
)

// RetryConfig controls retries of transient model failures.
type RetryConfig struct {
	MaxAttempts  int           // Retries after the first attempt; 0 disables retrying
	BaseDelay    time.Duration // Base delay for exponential backoff
	MaxDelay     time.Duration // Maximum delay between retries
	JitterFactor float64       // Jitter factor for randomization (0.25 = ±25%)
}

// DefaultRetryConfig returns the retry policy used by the CLI and server.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		JitterFactor: 0.25,
	}
}

// retryClient wraps an LLM client with exponential backoff.
type retryClient struct {
	underlying ports.LLMClient
	config     RetryConfig
	logger     logging.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRetryClient wraps client so transient failures are retried.
func NewRetryClient(client ports.LLMClient, config RetryConfig, logger logging.Logger) ports.LLMClient {
	if config.MaxAttempts <= 0 {
		return client
	}
	return &retryClient{
		underlying: client,
		config:     config,
		logger:     logging.OrNop(logger),
		sleep:      sleepContext,
	}
}

func (c *retryClient) Model() string {
	return c.underlying.Model()
}

// Generate retries the underlying call while it fails transiently.
func (c *retryClient) Generate(ctx context.Context, req ports.GenerateRequest) (*ports.GenerateResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled: %w", err)
		}
		resp, err := c.underlying.Generate(ctx, req)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("Model request succeeded after %d attempts", attempt+1)
			}
			return resp, nil
		}
		lastErr = err
		if !isTransient(err) {
			return nil, err
		}
		if attempt == c.config.MaxAttempts {
			c.logger.Warn("Max retries (%d) exhausted: %v", c.config.MaxAttempts+1, err)
			break
		}
		delay := backoff(attempt, c.config)
		c.logger.Debug("Attempt %d failed (%v), waiting %v", attempt+1, err, delay)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("context cancelled during retry: %w", err)
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isTransient reports whether err is worth retrying: rate limits, server
// errors and network timeouts.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "rate limit", "500", "502", "503", "504",
		"service unavailable", "bad gateway", "connection refused",
		"connection reset", "timeout",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// backoff returns baseDelay * 2^attempt with jitter, capped at MaxDelay.
func backoff(attempt int, config RetryConfig) time.Duration {
	delay := time.Duration(float64(config.BaseDelay) * math.Pow(2, float64(attempt)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	if config.JitterFactor > 0 {
		jitter := float64(delay) * config.JitterFactor
		delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
		if delay < 0 {
			delay = config.BaseDelay
		}
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
