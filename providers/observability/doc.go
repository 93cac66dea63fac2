// Package observability defines the small tracing surface used across the
// relay: a [Tracer] that starts [Span]s, typed [Attribute] helpers, and the
// semantic-convention constants in semconv.go.
//
// Spans travel through a [context.Context] via [ContextWithSpan] and
// [SpanFromContext], so stores and providers can add events to the span of
// the turn they are serving without knowing who started it.
package observability
