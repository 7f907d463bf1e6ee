package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCollectorIsNoop(t *testing.T) {
	m, err := NewMetricsCollector(MetricsConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, m.Enabled())

	ctx := context.Background()
	m.RecordInvocation(ctx, "get_time", "ok", time.Millisecond)
	m.RecordProcess(ctx, "ok", 1)
	m.RecordLLMRequest(ctx, "gemini-1.5-flash", "ok", time.Second)
	assert.NoError(t, m.Shutdown(ctx))

	var nilCollector *MetricsCollector
	nilCollector.RecordInvocation(ctx, "x", "ok", 0)
	assert.NoError(t, nilCollector.Shutdown(ctx))
}

func TestCollectorExposesInvocations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsCollector(MetricsConfig{Enabled: true, Registerer: reg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	ctx := context.Background()
	m.RecordInvocation(ctx, "get_time", "ok", 2*time.Millisecond)
	m.RecordInvocation(ctx, "nope", "unknown_command", 0)
	m.RecordProcess(ctx, "ok", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "cmdrelay_invocations")
	assert.Contains(t, text, `command="get_time"`)
	assert.Contains(t, text, `outcome="unknown_command"`)
	assert.Contains(t, text, "cmdrelay_process")
}

func TestCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCacheMetricsWithRegisterer(reg)

	m.RecordHit("add")
	m.RecordHit("add")
	m.RecordMiss("add")
	m.RecordExpired("add")
	m.RecordEviction()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.hits.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.expired.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evictions))

	var nilMetrics *CacheMetrics
	nilMetrics.RecordHit("add")
}

func TestNoopTracerProvider(t *testing.T) {
	tp, err := NewTracerProvider(TracingConfig{Enabled: false})
	require.NoError(t, err)

	ctx, span := tp.StartSpan(context.Background(), SpanProcess, CommandAttrs("x")...)
	assert.NotNil(t, ctx)
	EndSpan(span, nil)

	var nilProvider *TracerProvider
	_, span = nilProvider.StartSpan(context.Background(), SpanCommandInvoke)
	EndSpan(span, assert.AnError)
	assert.NoError(t, nilProvider.Shutdown(context.Background()))
}

func TestUnsupportedExporter(t *testing.T) {
	_, err := NewTracerProvider(TracingConfig{Enabled: true, Exporter: "carrier-pigeon"})
	assert.Error(t, err)
}
