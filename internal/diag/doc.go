// Package diag defines the diagnostic model used by binding traces.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: compact numeric identifier with a stable string form (codes.go).
//   - Element: the source.ElementID the finding is anchored to.
//   - Message: rendered text; Args keep the raw template arguments.
//   - Factory: the descriptor that produced it, when one was used.
//   - Notes: optional secondary anchors.
//
// The package stores and groups diagnostics. It never interprets a
// diagnostic beyond its element, severity and code.
//
// # Emitting
//
// Producers report through a Reporter. Factory.On builds a diagnostic from a
// descriptor; ReportBuilder chains notes before Emit. BagReporter collects
// into a Bag; DedupReporter drops repeats before forwarding.
//
// # Reading
//
// Diagnostics is an immutable snapshot of what a trace collected.
// ElementsCache groups one snapshot by element, building its index lazily
// on the first query.
package diag
