// Package observability provides OpenTelemetry tracing utilities.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer used by embedmux.
const TracerName = "embedmux"

// Tracer returns the embedmux tracer from the globally registered provider.
// When no SDK is installed this is a no-op tracer, so instrumentation is
// always safe to call.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartEmbedSpan opens a span for one embedding request.
func StartEmbedSpan(ctx context.Context, provider, model string, batch int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "embedmux.embed",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.system", provider),
			attribute.String("gen_ai.request.model", model),
			attribute.Int("embedmux.batch_size", batch),
		),
	)
}

// EndSpan records the outcome and closes the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
