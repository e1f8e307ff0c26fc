package binding

import (
	"sync"

	"factdb/internal/slicedmap"
)

type recordHandler func(key, value any)

// ObservableTrace runs per-slice handlers after every successful write.
type ObservableTrace struct {
	Trace

	mu       sync.RWMutex
	handlers map[*slicedmap.Header][]recordHandler
}

// NewObservableTrace wraps inner.
func NewObservableTrace(inner Trace) *ObservableTrace {
	return &ObservableTrace{
		Trace:    inner,
		handlers: make(map[*slicedmap.Header][]recordHandler),
	}
}

// Store writes through and notifies the slice's handlers.
func (t *ObservableTrace) Store(key slicedmap.Key, value any) (bool, error) {
	stored, err := t.Trace.Store(key, value)
	if err != nil || !stored {
		return stored, err
	}
	t.mu.RLock()
	hs := t.handlers[key.Slice()]
	t.mu.RUnlock()
	for _, h := range hs {
		h(key.Value(), value)
	}
	return true, nil
}

// BindingContext returns a view reading through this trace.
func (t *ObservableTrace) BindingContext() Context {
	return view{reader: t, diags: t.Diagnostics}
}

// Observe registers handler for writes to s made through t.
func Observe[K comparable, V any](t *ObservableTrace, s *slicedmap.Slice[K, V], handler func(key K, value V)) {
	h := func(key, value any) {
		k, _ := key.(K)
		v, _ := value.(V)
		handler(k, v)
	}
	t.mu.Lock()
	t.handlers[s.Header] = append(t.handlers[s.Header], h)
	t.mu.Unlock()
}
