package diag

import "factdb/internal/source"

// Diagnostics is an immutable, ordered snapshot of reported diagnostics.
// synchronized marks snapshots that are shared across goroutines; caches
// built on them lock their lazy state.
type Diagnostics struct {
	items        []Diagnostic
	synchronized bool
}

// Empty is the snapshot of a trace that reported nothing.
var Empty = &Diagnostics{}

// NewDiagnostics copies items into a snapshot.
func NewDiagnostics(items []Diagnostic, synchronized bool) *Diagnostics {
	return &Diagnostics{
		items:        append([]Diagnostic(nil), items...),
		synchronized: synchronized,
	}
}

// Items returns a copy of the diagnostics in report order.
func (d *Diagnostics) Items() []Diagnostic {
	if d == nil {
		return nil
	}
	return append([]Diagnostic(nil), d.items...)
}

// Range visits diagnostics in report order until fn returns false.
func (d *Diagnostics) Range(fn func(Diagnostic) bool) {
	if d == nil {
		return
	}
	for i := range d.items {
		if !fn(d.items[i]) {
			return
		}
	}
}

func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.items)
}

func (d *Diagnostics) Synchronized() bool { return d != nil && d.synchronized }

// HasErrors reports whether any diagnostic is an error.
func (d *Diagnostics) HasErrors() bool {
	if d == nil {
		return false
	}
	for i := range d.items {
		if d.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Filter returns a new snapshot with the diagnostics keep accepts.
func (d *Diagnostics) Filter(keep func(Diagnostic) bool) *Diagnostics {
	if d == nil {
		return Empty
	}
	out := make([]Diagnostic, 0, len(d.items))
	for _, item := range d.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return &Diagnostics{items: out, synchronized: d.synchronized}
}

// ForElement scans for diagnostics anchored to element. Repeated queries
// should go through an ElementsCache.
func (d *Diagnostics) ForElement(element source.ElementID) []Diagnostic {
	return d.Filter(func(item Diagnostic) bool { return item.Element == element }).items
}
