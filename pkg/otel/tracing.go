package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Span names
	SpanReplayRun       = "replay_run"
	SpanReplayIteration = "replay_iteration"
	SpanLoadFeed        = "load_feed"
	SpanPublishFeed     = "publish_feed"

	// Attribute keys
	AttributeRunID      = "replay.run_id"
	AttributeBookKind   = "book.kind"
	AttributeIteration  = "replay.iteration"
	AttributeActions    = "replay.actions"
	AttributeFills      = "replay.fills"
	AttributeFeedSource = "feed.source"
	AttributeOrderSide  = "order.side"
	AttributeAction     = "book.action"
	AttributeResult     = "result"
)

// Tracer returns the tracer of the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSpan starts a span on the global tracer
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on the span, if any, and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
