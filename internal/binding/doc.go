// Package binding is the façade resolvers write facts through.
//
// A Trace owns a fact store plus the diagnostics reported during one
// analysis session. When the write phase ends the session freezes the trace
// and hands its Context, the read-only view, to downstream consumers.
// Context has no write methods; read-only use is enforced by the type, not
// by runtime checks.
//
// Traces follow the single-writer-then-freeze contract: one goroutine writes
// during resolution, any number read afterwards. Writes after Freeze fail
// with slicedmap.ErrFrozen. Speculative resolution uses a TemporaryTrace
// that is merged into its parent with Commit.
package binding
