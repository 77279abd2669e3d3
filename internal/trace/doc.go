// Package trace records what a flakes run spends its time on.
//
// Spans mark the driver, each file and the passes of the checker; with
// --trace-level=debug every deferred function body, doctest and unknown
// node kind shows up too. Events go to a stream (text, NDJSON or the
// Chrome trace format), to an in-memory ring that is dumped on a crash or
// a timeout, or to both.
//
//	flakes check --trace=trace.json --trace-level=detail src/
//
// The tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, t)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, path, 0)
//	defer span.End("")
package trace
