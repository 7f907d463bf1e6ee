package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cmdrelay/internal/assistant"
	"cmdrelay/internal/builtins"
	"cmdrelay/internal/commands"
	"cmdrelay/internal/interpreter"
	"cmdrelay/internal/observability"
	"cmdrelay/internal/ports"
	"cmdrelay/internal/ports/mocks"
	"cmdrelay/internal/server/handlers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func newInterpreter(t *testing.T, opts ...interpreter.Option) *interpreter.Interpreter {
	t.Helper()
	now := func() time.Time { return time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC) }
	reg, err := commands.NewRegistry(builtins.Source(builtins.Config{Now: now}))
	require.NoError(t, err)
	return interpreter.New(reg, opts...)
}

func newServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	s, err := New(DefaultConfig(), newInterpreter(t, interpreter.WithMaxInputBytes(64)), opts...)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	rec := do(t, newServer(t), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestListCommands(t *testing.T) {
	rec := do(t, newServer(t), http.MethodGet, "/v1/commands", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[handlers.CommandsResponse](t, rec)
	require.NotEmpty(t, resp.Commands)
	assert.Equal(t, "get_time", resp.Commands[0].Name)
	assert.Equal(t, "get_time(format: str = '15:04')", resp.Commands[0].Signature)
	assert.NotEmpty(t, resp.Commands[0].Summary)
}

func TestPrompt(t *testing.T) {
	s := newServer(t)
	rec := do(t, s, http.MethodGet, "/v1/prompt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handlers.PromptResponse](t, rec)
	assert.Equal(t, s.interp.SystemPrompt(), resp.Prompt)
}

func TestProcess(t *testing.T) {
	s := newServer(t)

	t.Run("substitutes", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/process", `{"text":"Sum: COMMAND: add(a=2, b=3)"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[handlers.ProcessResponse](t, rec)
		assert.Equal(t, "Sum: 5", resp.Output)
		require.Len(t, resp.Invocations, 1)
		assert.Equal(t, interpreter.OutcomeOK, resp.Invocations[0].Outcome)
		assert.Equal(t, "add", resp.Invocations[0].Match.Command)
	})

	t.Run("explicit budget", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/process", `{"text":"COMMAND: echo(text='a')","max_invocations":0}`)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[handlers.ProcessResponse](t, rec)
		assert.Equal(t, "COMMAND: echo(text='a')", resp.Output)
		assert.Equal(t, interpreter.OutcomeSkipped, resp.Invocations[0].Outcome)
	})

	t.Run("no invocations", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/process", `{"text":"plain"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"output":"plain","invocations":[]}`, rec.Body.String())
	})

	t.Run("bad json", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/process", `{"text":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative budget", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/process", `{"text":"x","max_invocations":-1}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decode[handlers.ErrorResponse](t, rec).Error, "negative")
	})

	t.Run("input too large", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/process", `{"text":"`+strings.Repeat("x", 100)+`"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/process", strings.NewReader("text"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestChat(t *testing.T) {
	t.Run("no model", func(t *testing.T) {
		rec := do(t, newServer(t), http.MethodPost, "/v1/chat", `{"message":"hi"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	interp := newInterpreter(t)
	client := &mocks.MockLLMClient{
		GenerateFunc: func(ctx context.Context, req ports.GenerateRequest) (*ports.GenerateResponse, error) {
			if req.Prompt == "fail" {
				return nil, errors.New("boom")
			}
			return &ports.GenerateResponse{Text: "Today is COMMAND: get_date()"}, nil
		},
	}
	s, err := New(DefaultConfig(), interp, WithAssistant(assistant.New(client, interp)))
	require.NoError(t, err)

	t.Run("reply", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/chat", `{"message":"what day is it?"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[handlers.ChatResponse](t, rec)
		assert.Equal(t, "Today is 2026-03-14", resp.Reply)
		assert.Equal(t, "Today is COMMAND: get_date()", resp.Raw)
		assert.Equal(t, "mock-model", resp.Model)
		assert.Len(t, resp.Invocations, 1)
	})

	t.Run("model error", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/chat", `{"message":"fail"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Error generating text: boom", decode[handlers.ChatResponse](t, rec).Reply)
	})

	t.Run("missing message", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/chat", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	metrics, err := observability.NewMetricsCollector(observability.MetricsConfig{Enabled: true, Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = metrics.Shutdown(context.Background()) })

	interp := newInterpreter(t, interpreter.WithMetrics(metrics))
	s, err := New(DefaultConfig(), interp, WithMetrics(metrics))
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/v1/process", `{"text":"COMMAND: echo(text='x')"}`).Code)
	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cmdrelay_invocations")

	assert.Equal(t, http.StatusNotFound, do(t, newServer(t), http.MethodGet, "/metrics", "").Code)
}

func TestCORS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"http://localhost:3000"}
	s, err := New(cfg, newInterpreter(t))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewValidates(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)

	_, err = New(Config{}, newInterpreter(t))
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	s, err := New(cfg, newInterpreter(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
