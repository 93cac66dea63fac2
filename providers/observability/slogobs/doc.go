// Package slogobs implements [observability.Tracer] on top of log/slog.
// Spans are not exported anywhere; their start, events, errors and end are
// written as structured log records, which is enough to follow a relay turn
// in the process logs.
//
// [NewLogger] builds the process logger from LOG_LEVEL / LOG_FORMAT (or
// explicit options) and [New] wraps a logger into an [Observer].
package slogobs
