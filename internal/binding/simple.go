package binding

import (
	"fmt"
	"sync"
	"sync/atomic"

	"factdb/internal/diag"
	"factdb/internal/slicedmap"
	"factdb/internal/trace"
)

// Options configure a trace.
type Options struct {
	// Name labels trace events.
	Name string
	// Strict makes rewrite violations errors and reports after freeze panic.
	Strict bool
	// Track logs every write with a sequence number.
	Track bool
	// CaptureStacks adds the writer's stack to tracked writes.
	CaptureStacks bool
	// Synchronized marks diagnostics snapshots as shared across goroutines.
	Synchronized bool
	// MaxDiagnostics caps the collected diagnostics; 0 means no limit.
	MaxDiagnostics int
	Tracer         trace.Tracer
	// Parent is the span trace events hang off.
	Parent uint64
}

func (o Options) tracer() trace.Tracer {
	if o.Tracer == nil {
		return trace.Nop
	}
	return o.Tracer
}

// SimpleTrace is the root trace of a session.
type SimpleTrace struct {
	opts     Options
	store    *slicedmap.Map
	writer   slicedmap.Writer
	tracking *slicedmap.TrackingMap

	mu       sync.Mutex
	bag      *diag.Bag
	dropped  int
	frozen   atomic.Bool
	snapshot *diag.Diagnostics // set by Freeze
}

var _ Trace = (*SimpleTrace)(nil)

// NewTrace creates an empty trace.
func NewTrace(opts Options) *SimpleTrace {
	if opts.Name == "" {
		opts.Name = "trace"
	}
	t := &SimpleTrace{
		opts:  opts,
		store: slicedmap.NewMap(slicedmap.Options{Strict: opts.Strict}),
		bag:   diag.NewBag(opts.MaxDiagnostics),
	}
	t.writer = t.store
	if opts.Track {
		t.tracking = slicedmap.NewTrackingMap(t.store, slicedmap.TrackingOptions{
			CaptureStacks: opts.CaptureStacks,
			Tracer:        opts.tracer(),
			Parent:        opts.Parent,
		})
		t.writer = t.tracking
	}
	return t
}

func (t *SimpleTrace) Name() string { return t.opts.Name }

func (t *SimpleTrace) Strict() bool { return t.opts.Strict }

// Load implements slicedmap.Reader.
func (t *SimpleTrace) Load(key slicedmap.Key) (any, bool) { return t.writer.Load(key) }

// Range implements slicedmap.Reader.
func (t *SimpleTrace) Range(fn func(slicedmap.Key, any) bool) { t.writer.Range(fn) }

// KeysOf implements slicedmap.Reader.
func (t *SimpleTrace) KeysOf(slice *slicedmap.Header) []slicedmap.Key {
	return t.writer.KeysOf(slice)
}

// Store implements slicedmap.Writer.
func (t *SimpleTrace) Store(key slicedmap.Key, value any) (bool, error) {
	stored, err := t.writer.Store(key, value)
	if err != nil && t.tracking == nil {
		trace.Error(t.opts.tracer(), t.opts.Name+".store", err.Error())
	}
	return stored, err
}

// Delete implements slicedmap.Writer.
func (t *SimpleTrace) Delete(key slicedmap.Key) (any, bool, error) {
	return t.writer.Delete(key)
}

// Report appends d. Reports are never deduplicated. A report after Freeze
// panics in strict mode and is dropped otherwise.
func (t *SimpleTrace) Report(d diag.Diagnostic) {
	t.mu.Lock()
	frozen := t.frozen.Load()
	added := false
	if !frozen {
		added = t.bag.Add(d)
		if !added {
			t.dropped++
		}
	}
	t.mu.Unlock()

	switch {
	case frozen && t.opts.Strict:
		panic(fmt.Errorf("%s: report %s after freeze: %w", t.opts.Name, d.Code.ID(), slicedmap.ErrFrozen))
	case frozen:
		trace.Error(t.opts.tracer(), t.opts.Name+".report", "dropped after freeze: "+d.Message)
	case !added:
		trace.Error(t.opts.tracer(), t.opts.Name+".report", "diagnostic limit reached, dropped: "+d.Message)
	default:
		trace.Point(t.opts.tracer(), trace.ScopeFact, "report", d.Code.ID(), t.opts.Parent)
	}
}

// Dropped counts diagnostics refused by the limit.
func (t *SimpleTrace) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Diagnostics returns a snapshot of the reported diagnostics.
func (t *SimpleTrace) Diagnostics() *diag.Diagnostics {
	if t.frozen.Load() {
		return t.snapshot
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return diag.NewDiagnostics(t.bag.Items(), t.opts.Synchronized)
}

// BindingContext returns the read-only view.
func (t *SimpleTrace) BindingContext() Context {
	return view{reader: t, diags: t.Diagnostics}
}

// Freeze ends the write phase. It is idempotent.
func (t *SimpleTrace) Freeze() Context {
	t.mu.Lock()
	if !t.frozen.Load() {
		t.store.Freeze()
		t.snapshot = diag.NewDiagnostics(t.bag.Items(), t.opts.Synchronized)
		t.frozen.Store(true)
		trace.Point(t.opts.tracer(), trace.ScopePhase, "freeze",
			fmt.Sprintf("%s: %d facts, %d diagnostics", t.opts.Name, t.store.Len(), t.snapshot.Len()), t.opts.Parent)
	}
	t.mu.Unlock()
	return t.BindingContext()
}

func (t *SimpleTrace) Frozen() bool { return t.frozen.Load() }

// Len returns the number of stored facts.
func (t *SimpleTrace) Len() int { return t.store.Len() }

// Writes returns the write log; nil unless the trace tracks writes.
func (t *SimpleTrace) Writes() []slicedmap.Write {
	if t.tracking == nil {
		return nil
	}
	return t.tracking.Writes()
}

// Origin returns the last tracked write of key.
func (t *SimpleTrace) Origin(key slicedmap.Key) (slicedmap.Write, bool) {
	if t.tracking == nil {
		return slicedmap.Write{}, false
	}
	return t.tracking.Origin(key)
}
