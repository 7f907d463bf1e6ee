package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"cmdrelay/internal/ports"
	"cmdrelay/internal/ports/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestRetryClient(inner ports.LLMClient, attempts int) (*retryClient, *[]time.Duration) {
	var slept []time.Duration
	c := NewRetryClient(inner, RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}, nil).(*retryClient)
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestRetryClientRetriesTransientErrors(t *testing.T) {
	calls := 0
	inner := &mocks.MockLLMClient{
		GenerateFunc: func(ctx context.Context, req ports.GenerateRequest) (*ports.GenerateResponse, error) {
			calls++
			if calls < 3 {
				return nil, genai.APIError{Code: 503, Message: "overloaded"}
			}
			return &ports.GenerateResponse{Text: "done"}, nil
		},
	}
	client, slept := newTestRetryClient(inner, 3)

	resp, err := client.Generate(context.Background(), ports.GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Text)
	assert.Equal(t, 3, calls)
	assert.Len(t, *slept, 2)
	assert.Equal(t, "mock-model", client.Model())
}

func TestRetryClientStopsOnPermanentError(t *testing.T) {
	calls := 0
	inner := &mocks.MockLLMClient{
		GenerateFunc: func(ctx context.Context, req ports.GenerateRequest) (*ports.GenerateResponse, error) {
			calls++
			return nil, genai.APIError{Code: 400, Message: "bad request"}
		},
	}
	client, slept := newTestRetryClient(inner, 3)

	_, err := client.Generate(context.Background(), ports.GenerateRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestRetryClientGivesUp(t *testing.T) {
	calls := 0
	inner := &mocks.MockLLMClient{
		GenerateFunc: func(ctx context.Context, req ports.GenerateRequest) (*ports.GenerateResponse, error) {
			calls++
			return nil, errors.New("429 rate limit")
		},
	}
	client, _ := newTestRetryClient(inner, 2)

	_, err := client.Generate(context.Background(), ports.GenerateRequest{})
	require.ErrorContains(t, err, "max retries exceeded")
	assert.Equal(t, 3, calls)
}

func TestNewRetryClientDisabled(t *testing.T) {
	inner := &mocks.MockLLMClient{}
	assert.Same(t, ports.LLMClient(inner), NewRetryClient(inner, RetryConfig{}, nil))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(genai.APIError{Code: 429}))
	assert.True(t, isTransient(genai.APIError{Code: 500}))
	assert.False(t, isTransient(genai.APIError{Code: 403}))
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.False(t, isTransient(context.Canceled))
	assert.True(t, isTransient(errors.New("dial tcp: connection refused")))
	assert.False(t, isTransient(errors.New("invalid argument")))
	assert.False(t, isTransient(nil))
}

func TestBackoffIsCapped(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Second, MaxDelay: 3 * time.Second}
	assert.Equal(t, time.Second, backoff(0, cfg))
	assert.Equal(t, 2*time.Second, backoff(1, cfg))
	assert.Equal(t, 3*time.Second, backoff(5, cfg))
}
