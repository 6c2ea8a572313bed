package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanRecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)

	_, span := StartSpan(context.Background(), SpanReplayRun, attribute.String(AttributeBookKind, "vec"))
	EndSpan(span, errors.New("conservation violated"))

	_, ok := StartSpan(context.Background(), SpanLoadFeed)
	EndSpan(ok, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, SpanReplayRun, ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String(AttributeBookKind, "vec"))
	assert.Equal(t, SpanLoadFeed, ended[1].Name())
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}

func TestInitDisabled(t *testing.T) {
	cleanup, err := Init(Config{})
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	cleanup()
}
