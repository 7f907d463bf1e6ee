package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingTracer(t *testing.T) (*TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return &TracerProvider{provider: provider, tracer: provider.Tracer("cmdrelay")}, recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestEndSpanRecordsErrorAttributes(t *testing.T) {
	tp, recorder := recordingTracer(t)

	ctx := ContextWithSessionID(context.Background(), "s-1")
	_, span := tp.StartSpan(ctx, SpanCommandInvoke, CommandAttrs("echo")...)
	EndSpan(span, errors.New("boom"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, SpanCommandInvoke, got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "boom", got.Status().Description)

	attrs := attrMap(got.Attributes())
	assert.Equal(t, "echo", attrs[AttrCommand].AsString())
	assert.Equal(t, "s-1", attrs[AttrSessionID].AsString())
	assert.True(t, attrs["error"].AsBool())
	assert.Equal(t, "boom", attrs["error.message"].AsString())
}

func TestEndSpanWithoutError(t *testing.T) {
	tp, recorder := recordingTracer(t)

	_, span := tp.StartSpan(context.Background(), SpanProcess)
	EndSpan(span, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	_, hasErr := attrMap(ended[0].Attributes())["error"]
	assert.False(t, hasErr)
	assert.Nil(t, ErrorAttrs(nil))
}

func TestNoopTracerProviderSpans(t *testing.T) {
	var nilProvider *TracerProvider
	_, span := nilProvider.StartSpan(context.Background(), SpanProcess)
	assert.False(t, span.SpanContext().HasTraceID())
	EndSpan(span, errors.New("ignored"))

	tp, err := NewTracerProvider(TracingConfig{Enabled: false})
	require.NoError(t, err)
	_, span = tp.StartSpan(context.Background(), SpanProcess)
	assert.False(t, span.SpanContext().IsValid())
	require.NoError(t, tp.Shutdown(context.Background()))
}
