package slicedmap

import (
	"fmt"

	"factdb/internal/lazy"
)

type registered struct {
	header *Header
	slice  any // *Slice[K, V]
}

// Registry names the slices of one analysis module. It replaces process
// wide slice singletons: whoever builds the slices registers them here and
// passes the registry to dumpers and scripts.
type Registry struct {
	slices *lazy.SmallCache[string, registered]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{slices: lazy.NewSmallCache[string, registered](16)}
}

// Register adds s under its debug name. Names must be unique within one
// registry even though they are not slice identity.
func Register[K comparable, V any](r *Registry, s *Slice[K, V]) error {
	if s == nil {
		return fmt.Errorf("register: nil slice")
	}
	prev, stored := r.slices.PutIfAbsent(s.name, registered{header: s.Header, slice: s})
	if stored || prev.header == s.Header {
		return nil
	}
	return fmt.Errorf("register: duplicate slice name %q", s.name)
}

// Lookup returns the typed slice registered under name.
func Lookup[K comparable, V any](r *Registry, name string) (*Slice[K, V], bool) {
	entry, ok := r.slices.Get(name)
	if !ok {
		return nil, false
	}
	s, ok := entry.slice.(*Slice[K, V])
	return s, ok
}

// Header returns the header registered under name.
func (r *Registry) Header(name string) (*Header, bool) {
	entry, ok := r.slices.Get(name)
	return entry.header, ok
}

// Headers lists registered slices in registration order.
func (r *Registry) Headers() []*Header {
	out := make([]*Header, 0, r.slices.Len())
	r.slices.Range(func(_ string, entry registered) bool {
		out = append(out, entry.header)
		return true
	})
	return out
}

// Len reports the number of registered slices.
func (r *Registry) Len() int { return r.slices.Len() }
