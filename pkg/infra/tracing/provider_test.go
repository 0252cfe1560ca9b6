package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	options "github.com/kart-io/astramed/pkg/options/tracing"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), options.NewOptions())
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(context.Background()) }()

	assert.False(t, p.Enabled())
	_, span := p.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestNewProviderNoopExporter(t *testing.T) {
	opts := options.NewOptions()
	opts.Enabled = true
	opts.ExporterType = options.ExporterNoop
	opts.SamplerType = options.SamplerAlwaysOn

	p, err := NewProvider(context.Background(), opts)
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(context.Background()) }()

	assert.True(t, p.Enabled())
	ctx, span := StartSpan(context.Background(), "test", "op")
	assert.True(t, span.IsRecording())
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	span.End()
}

func TestNewProviderInvalid(t *testing.T) {
	opts := options.NewOptions()
	opts.Enabled = true
	opts.ExporterType = "kafka"
	_, err := NewProvider(context.Background(), opts)
	assert.Error(t, err)
}

func TestRecordError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := StartSpan(context.Background(), "test", "astramed.retrieve")
	RecordError(ctx, errors.New("milvus down"))
	RecordError(ctx, nil)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "astramed.retrieve", ended[0].Name())
	assert.Equal(t, "milvus down", ended[0].Status().Description)
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
