package observability

import (
	"context"
	"errors"
	"testing"

	"agora/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestSpan_RecordsErrorAndAttributes(t *testing.T) {
	exporter := withRecorder(t)

	span, _ := NewSpan(context.Background(), "ThreadCoordinator.UpdateThread", attribute.Int64("thread.id", 7))
	span.AddAttributes(attribute.String("outcome", "persistence_error"))
	span.SetError(errors.New("boom"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "ThreadCoordinator.UpdateThread", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.Int64("thread.id", 7))
	assert.Contains(t, spans[0].Attributes, attribute.String("outcome", "persistence_error"))
}

func TestSpan_NilErrorKeepsStatusUnset(t *testing.T) {
	exporter := withRecorder(t)

	span, _ := NewSpan(context.Background(), "ok")
	span.SetError(nil)
	span.End()

	require.Len(t, exporter.GetSpans(), 1)
	assert.Equal(t, codes.Unset, exporter.GetSpans()[0].Status.Code)

	var nilSpan *Span
	assert.NotPanics(t, func() {
		nilSpan.SetError(errors.New("x"))
		nilSpan.End()
	})
}

func TestTracingConfigFrom(t *testing.T) {
	cfg := &config.Config{Env: "test", TracingEnabled: true, TracingExporter: " OTLP ", OTLPEndpoint: "collector:4318", TracingSampler: 0.5}

	tc := TracingConfigFrom(cfg, "agora-recache")
	assert.Equal(t, "otlp", tc.Exporter)
	assert.Equal(t, "agora-recache", tc.ServiceName)
	assert.True(t, tc.Enabled)

	_, err := newExporter(context.Background(), TracingConfig{Exporter: "zipkin"})
	assert.Error(t, err)
}

func TestInitTracing_Disabled(t *testing.T) {
	prev := Tracer
	t.Cleanup(func() { Tracer = prev })

	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "agora"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
