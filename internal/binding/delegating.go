package binding

import (
	"errors"
	"fmt"
	"sync"

	"factdb/internal/diag"
	"factdb/internal/slicedmap"
	"factdb/internal/trace"
)

// DelegatingTrace keeps its own facts and diagnostics and falls back to a
// parent Context for reads. Rewrite policies apply to local facts only;
// conflicts with the parent show up when the facts are copied over.
type DelegatingTrace struct {
	opts   Options
	parent Context
	local  *slicedmap.Map

	mu  sync.Mutex
	bag *diag.Bag
}

var _ Trace = (*DelegatingTrace)(nil)

// NewDelegatingTrace creates a trace reading through to parent.
func NewDelegatingTrace(parent Context, opts Options) *DelegatingTrace {
	if opts.Name == "" {
		opts.Name = "delegating"
	}
	return &DelegatingTrace{
		opts:   opts,
		parent: parent,
		local:  slicedmap.NewMap(slicedmap.Options{Strict: opts.Strict}),
		bag:    diag.NewBag(opts.MaxDiagnostics),
	}
}

func (t *DelegatingTrace) Parent() Context { return t.parent }

// Load implements slicedmap.Reader.
func (t *DelegatingTrace) Load(key slicedmap.Key) (any, bool) {
	if value, ok := t.local.Load(key); ok {
		return value, true
	}
	return t.parent.Load(key)
}

// Range visits parent facts not shadowed locally, then local facts.
func (t *DelegatingTrace) Range(fn func(slicedmap.Key, any) bool) {
	stopped := false
	t.parent.Range(func(key slicedmap.Key, value any) bool {
		if _, shadowed := t.local.Load(key); shadowed {
			return true
		}
		if !fn(key, value) {
			stopped = true
			return false
		}
		return true
	})
	if !stopped {
		t.local.Range(fn)
	}
}

// KeysOf implements slicedmap.Reader.
func (t *DelegatingTrace) KeysOf(slice *slicedmap.Header) []slicedmap.Key {
	var keys []slicedmap.Key
	for _, key := range t.parent.KeysOf(slice) {
		if _, shadowed := t.local.Load(key); !shadowed {
			keys = append(keys, key)
		}
	}
	return append(keys, t.local.KeysOf(slice)...)
}

// Store writes to the local store.
func (t *DelegatingTrace) Store(key slicedmap.Key, value any) (bool, error) {
	stored, err := t.local.Store(key, value)
	if err != nil {
		trace.Error(t.opts.tracer(), t.opts.Name+".store", err.Error())
	}
	return stored, err
}

// Delete removes a local fact. Parent facts are untouched.
func (t *DelegatingTrace) Delete(key slicedmap.Key) (any, bool, error) {
	return t.local.Delete(key)
}

// Report appends d to the local diagnostics.
func (t *DelegatingTrace) Report(d diag.Diagnostic) {
	t.mu.Lock()
	added := t.bag.Add(d)
	t.mu.Unlock()
	if !added {
		trace.Error(t.opts.tracer(), t.opts.Name+".report", "diagnostic limit reached, dropped: "+d.Message)
	}
}

// Diagnostics returns parent diagnostics followed by local ones.
func (t *DelegatingTrace) Diagnostics() *diag.Diagnostics {
	items := t.parent.Diagnostics().Items()
	t.mu.Lock()
	items = append(items, t.bag.Items()...)
	t.mu.Unlock()
	return diag.NewDiagnostics(items, t.opts.Synchronized)
}

// BindingContext returns the read-only view.
func (t *DelegatingTrace) BindingContext() Context {
	return view{reader: t, diags: t.Diagnostics}
}

// LocalLen counts local facts.
func (t *DelegatingTrace) LocalLen() int { return t.local.Len() }

// AddAllTo replays local facts in insertion order and local diagnostics in
// report order into dst. Every fact is attempted; the errors are joined.
func (t *DelegatingTrace) AddAllTo(dst Trace) error {
	var errs []error
	t.local.Range(func(key slicedmap.Key, value any) bool {
		if _, err := dst.Store(key, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return true
	})
	t.mu.Lock()
	items := append([]diag.Diagnostic(nil), t.bag.Items()...)
	t.mu.Unlock()
	for _, d := range items {
		dst.Report(d)
	}
	return errors.Join(errs...)
}

// Clear drops local facts and diagnostics.
func (t *DelegatingTrace) Clear() {
	// the local map is never frozen
	_ = t.local.Clear()
	t.mu.Lock()
	t.bag.Reset()
	t.mu.Unlock()
}

// TemporaryTrace collects speculative facts on top of a parent trace until
// they are committed or dropped.
type TemporaryTrace struct {
	*DelegatingTrace
	target Trace
}

// NewTemporaryTrace creates a speculative trace over parent.
func NewTemporaryTrace(parent Trace, opts Options) *TemporaryTrace {
	if opts.Name == "" {
		opts.Name = "temporary"
	}
	return &TemporaryTrace{
		DelegatingTrace: NewDelegatingTrace(parent.BindingContext(), opts),
		target:          parent,
	}
}

// Commit copies everything into the parent and clears this trace.
func (t *TemporaryTrace) Commit() error {
	span := trace.Begin(t.opts.tracer(), trace.ScopePhase, t.opts.Name+".commit", t.opts.Parent)
	n := t.LocalLen()
	err := t.AddAllTo(t.target)
	t.Clear()
	span.End(fmt.Sprintf("%d facts", n))
	return err
}
