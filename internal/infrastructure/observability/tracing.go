package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "conexao-server/chat-gateway"
)

// GetTracer returns the tracer for the chat-gateway service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// TurnAttributes returns common attributes for turn spans.
func TurnAttributes(userID, messageType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("turn.user_id", userID),
		attribute.String("turn.message_type", messageType),
	}
}

// StartTurnSpan starts a new span covering one inbound turn.
func StartTurnSpan(ctx context.Context, userID, messageType string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "turn.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(TurnAttributes(userID, messageType)...),
	)
}

// StartEngineSpan starts a new span for a delegation engine call.
func StartEngineSpan(ctx context.Context, model string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "engine.run",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("engine.model", model)),
	)
}

// StartChannelSpan starts a new span for an outbound channel call.
func StartChannelSpan(ctx context.Context, kind string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "channel."+kind,
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
