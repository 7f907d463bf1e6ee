package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsCollector records command and model metrics. A zero value is a
// valid, disabled collector: every Record method is a no-op.
type MetricsCollector struct {
	meter    metric.Meter
	provider *sdkmetric.MeterProvider
	gatherer prometheus.Gatherer

	invocations        metric.Int64Counter
	invocationDuration metric.Float64Histogram
	processCalls       metric.Int64Counter
	processMatches     metric.Int64Histogram

	llmRequests metric.Int64Counter
	llmLatency  metric.Float64Histogram

	prometheusServer *http.Server
}

// MetricsConfig configures the metrics collector
type MetricsConfig struct {
	Enabled        bool `yaml:"enabled"`
	PrometheusPort int  `yaml:"prometheus_port"`

	// Registerer receives the exporter; nil uses the default registry.
	Registerer prometheus.Registerer `yaml:"-"`
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	registerer := config.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := registerer.(prometheus.Gatherer); ok {
		gatherer = g
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(registerer))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter("cmdrelay")

	m := &MetricsCollector{meter: meter, provider: provider, gatherer: gatherer}

	if m.invocations, err = meter.Int64Counter(
		"cmdrelay.invocations.total",
		metric.WithDescription("Command invocations by outcome"),
		metric.WithUnit("{invocation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create invocations counter: %w", err)
	}

	if m.invocationDuration, err = meter.Float64Histogram(
		"cmdrelay.invocation.duration",
		metric.WithDescription("Command invocation duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create invocation duration histogram: %w", err)
	}

	if m.processCalls, err = meter.Int64Counter(
		"cmdrelay.process.total",
		metric.WithDescription("Texts processed"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create process counter: %w", err)
	}

	if m.processMatches, err = meter.Int64Histogram(
		"cmdrelay.process.matches",
		metric.WithDescription("Invocation tokens found per processed text"),
		metric.WithUnit("{match}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create process matches histogram: %w", err)
	}

	if m.llmRequests, err = meter.Int64Counter(
		"cmdrelay.llm.requests.total",
		metric.WithDescription("Total number of model requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm requests counter: %w", err)
	}

	if m.llmLatency, err = meter.Float64Histogram(
		"cmdrelay.llm.latency",
		metric.WithDescription("Model request latency in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm latency histogram: %w", err)
	}

	if config.PrometheusPort > 0 {
		m.StartPrometheusServer(config.PrometheusPort, nil)
	}

	return m, nil
}

// Enabled reports whether the collector records anything.
func (m *MetricsCollector) Enabled() bool {
	return m != nil && m.invocations != nil
}

// Handler serves the Prometheus exposition for this collector.
func (m *MetricsCollector) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// StartPrometheusServer serves /metrics on a dedicated port in the
// background. Serve errors are reported to logger when non-nil.
func (m *MetricsCollector) StartPrometheusServer(port int, logger *Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	m.prometheusServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if logger != nil {
			logger.Info("prometheus metrics server listening", "port", port)
		}
		if err := m.prometheusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && logger != nil {
			logger.Error("prometheus server error", "error", err)
		}
	}()
}

// Shutdown stops the metrics server and flushes the meter provider.
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	var errs []error
	if m.prometheusServer != nil {
		errs = append(errs, m.prometheusServer.Shutdown(ctx))
	}
	if m.provider != nil {
		errs = append(errs, m.provider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// RecordInvocation records one command invocation.
func (m *MetricsCollector) RecordInvocation(ctx context.Context, command, outcome string, duration time.Duration) {
	if !m.Enabled() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	)
	m.invocations.Add(ctx, 1, attrs)
	m.invocationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("command", command)))
}

// RecordProcess records one processed text and how many tokens it held.
func (m *MetricsCollector) RecordProcess(ctx context.Context, status string, matches int) {
	if !m.Enabled() {
		return
	}
	m.processCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.processMatches.Record(ctx, int64(matches))
}

// RecordLLMRequest records a model request
func (m *MetricsCollector) RecordLLMRequest(ctx context.Context, model, status string, latency time.Duration) {
	if !m.Enabled() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("status", status),
	)
	m.llmRequests.Add(ctx, 1, attrs)
	m.llmLatency.Record(ctx, latency.Seconds(), attrs)
}
