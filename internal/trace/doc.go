// Package trace records what a fact-store session does: session and phase
// boundaries, per-slice activity and, at the most verbose level, every fact
// written through a tracking map.
//
// # Usage
//
//	factdb run --trace=- --trace-level=detail facts.toml
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes each event immediately (file/stderr)
//   - RingTracer: keeps the last N events for post-mortem dumps
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// Level controls verbosity, Scope classifies events:
//
//   - ScopeSession: one analysis session (one binding trace)
//   - ScopePhase: script loading, execution, freezing, rendering
//   - ScopeSlice: per-slice activity (registration, fallbacks, rewrites)
//   - ScopeFact: single writes and removals
//
// LevelPhase emits session+phase, LevelDetail adds slices, LevelDebug adds
// facts.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePhase, "run", 0)
//	defer span.End("")
package trace
