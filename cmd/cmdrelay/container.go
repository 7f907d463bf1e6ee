package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"cmdrelay/internal/assistant"
	"cmdrelay/internal/builtins"
	"cmdrelay/internal/commands"
	"cmdrelay/internal/config"
	"cmdrelay/internal/interpreter"
	"cmdrelay/internal/llm"
	"cmdrelay/internal/logging"
	"cmdrelay/internal/observability"
	"cmdrelay/internal/ports"
)

// Container wires the configured components together.
type Container struct {
	Config      *config.Config
	Obs         *observability.Observability
	Registry    *prometheus.Registry
	Logger      logging.Logger
	Interpreter *interpreter.Interpreter
	// Assistant is nil when no model was requested or no API key is set.
	Assistant *assistant.Assistant
}

type containerFactory func(ctx context.Context, cfg *config.Config, withModel bool) (*Container, error)

// errNoModel is returned by commands that cannot run without a model.
var errNoModel = errors.New("no model configured: " + llm.ErrMissingAPIKey.Error())

func buildContainer(ctx context.Context, cfg *config.Config, withModel bool) (*Container, error) {
	reg := prometheus.NewRegistry()
	obsConfig := cfg.Observability
	obsConfig.Metrics.Registerer = reg

	obs, err := observability.New(obsConfig)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	c := &Container{
		Config:   cfg,
		Obs:      obs,
		Registry: reg,
		Logger:   logging.FromObservabilityWithComponent(obs.Logger, "cmdrelay"),
	}

	commandRegistry, err := commands.NewRegistry(builtins.Source(builtins.Config{
		HTTPTimeout: cfg.Builtins.HTTPTimeout,
	}))
	if err != nil {
		return nil, errors.Join(err, c.Shutdown(ctx))
	}

	opts := []interpreter.Option{
		interpreter.WithDefaultBudget(cfg.MaxInvocations),
		interpreter.WithMaxInputBytes(cfg.MaxInputBytes),
		interpreter.WithLogger(logging.FromObservabilityWithComponent(obs.Logger, "interpreter")),
		interpreter.WithMetrics(obs.Metrics),
		interpreter.WithTracer(obs.Tracer),
	}
	if cfg.Cache.Enabled {
		opts = append(opts,
			interpreter.WithCache(cfg.Cache.Size, cfg.Cache.TTL),
			interpreter.WithCacheMetrics(observability.NewCacheMetricsWithRegisterer(reg)),
		)
	}
	c.Interpreter = interpreter.New(commandRegistry, opts...)

	if withModel && cfg.HasAPIKey() {
		client, err := newModelClient(ctx, cfg, obs)
		if err != nil {
			return nil, errors.Join(err, c.Shutdown(ctx))
		}
		c.Assistant = assistant.New(client, c.Interpreter,
			assistant.WithBudget(cfg.MaxInvocations),
			assistant.WithLogger(logging.FromObservabilityWithComponent(obs.Logger, "assistant")),
		)
	}
	return c, nil
}

func newModelClient(ctx context.Context, cfg *config.Config, obs *observability.Observability) (ports.LLMClient, error) {
	logger := logging.FromObservabilityWithComponent(obs.Logger, "llm")
	gemini, err := llm.NewGeminiClient(ctx, llm.Config{APIKey: cfg.APIKey, Model: cfg.Model},
		llm.WithLogger(logger),
		llm.WithMetrics(obs.Metrics),
		llm.WithTracer(obs.Tracer),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using model %s (key %s)", gemini.Model(), observability.SanitizeAPIKey(cfg.APIKey))
	return llm.NewRetryClient(gemini, llm.DefaultRetryConfig(), logger), nil
}

// Shutdown flushes telemetry.
func (c *Container) Shutdown(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.Obs.Shutdown(ctx)
}
