package slicedmap

import (
	"runtime/debug"
	"sync"

	"factdb/internal/trace"
)

// Write is one successful mutation seen by a TrackingMap.
type Write struct {
	Seq     uint64 // global, monotonic
	Key     Key
	Value   any
	Removed bool
	Stack   string // only with CaptureStacks
}

// TrackingOptions configure a TrackingMap.
type TrackingOptions struct {
	// CaptureStacks stores the writer's stack with every write.
	CaptureStacks bool
	// Tracer receives a fact-scope event per write and an error event per
	// rejected rewrite.
	Tracer trace.Tracer
	// Parent is the span the events hang off.
	Parent uint64
}

// TrackingMap wraps a Writer and logs every write so tests and debugging
// code can assert on write order and find where a fact came from.
type TrackingMap struct {
	inner  Writer
	opts   TrackingOptions
	mu     sync.Mutex
	writes []Write
	last   map[Key]int
}

var _ Writer = (*TrackingMap)(nil)

// NewTrackingMap wraps inner.
func NewTrackingMap(inner Writer, opts TrackingOptions) *TrackingMap {
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	return &TrackingMap{
		inner: inner,
		opts:  opts,
		last:  make(map[Key]int),
	}
}

// Load implements Reader.
func (t *TrackingMap) Load(key Key) (any, bool) { return t.inner.Load(key) }

// Range implements Reader.
func (t *TrackingMap) Range(fn func(Key, any) bool) { t.inner.Range(fn) }

// KeysOf implements Reader.
func (t *TrackingMap) KeysOf(slice *Header) []Key { return t.inner.KeysOf(slice) }

// Store implements Writer and logs the write when it happened.
func (t *TrackingMap) Store(key Key, value any) (bool, error) {
	stored, err := t.inner.Store(key, value)
	if err != nil {
		trace.Error(t.opts.Tracer, "store", err.Error())
		return stored, err
	}
	if stored {
		t.log(Write{Key: key, Value: value})
		trace.Point(t.opts.Tracer, trace.ScopeFact, "record", key.String(), t.opts.Parent)
	}
	return stored, nil
}

// Delete implements Writer and logs the removal.
func (t *TrackingMap) Delete(key Key) (any, bool, error) {
	old, ok, err := t.inner.Delete(key)
	if err != nil || !ok {
		return old, ok, err
	}
	t.log(Write{Key: key, Value: old, Removed: true})
	trace.Point(t.opts.Tracer, trace.ScopeFact, "remove", key.String(), t.opts.Parent)
	return old, true, nil
}

// Writes returns the write log in order.
func (t *TrackingMap) Writes() []Write {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Write(nil), t.writes...)
}

// Origin returns the last write that touched key.
func (t *TrackingMap) Origin(key Key) (Write, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.last[key]
	if !ok {
		return Write{}, false
	}
	return t.writes[i], true
}

func (t *TrackingMap) log(w Write) {
	if t.opts.CaptureStacks {
		w.Stack = string(debug.Stack())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	w.Seq = trace.NextSeq()
	t.last[w.Key] = len(t.writes)
	t.writes = append(t.writes, w)
}
