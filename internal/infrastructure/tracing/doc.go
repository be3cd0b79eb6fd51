/*
Package tracing propagates a trace ID from the client to the mock API and
logs finished spans.

# Overview

A trace starts where a command begins work (cmd/example starts one per
operation). The transport copies the trace and span IDs of the request
context into the X-Trace-Id and X-Span-Id headers, and the mock API's
middleware continues the trace with a child span. Both sides log their spans
through zap, so one trace ID links client and server log lines.

# Usage

	tracer := tracing.New("example", logger)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(ctx, "get-resources")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	router.Use(tracing.HTTPMiddleware(tracer))

Spans are buffered (1000) and processed on a single collector goroutine.
*/
package tracing
