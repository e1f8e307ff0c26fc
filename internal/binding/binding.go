package binding

import (
	"factdb/internal/diag"
	"factdb/internal/slicedmap"
)

// Context is the read-only view of a trace.
type Context interface {
	slicedmap.Reader
	// Diagnostics returns the diagnostics reported so far.
	Diagnostics() *diag.Diagnostics
}

// Trace is the writable fact store of one analysis session.
type Trace interface {
	slicedmap.Writer
	diag.Reporter
	Diagnostics() *diag.Diagnostics
	BindingContext() Context
}

// Record writes a fact.
func Record[K comparable, V any](t Trace, s *slicedmap.Slice[K, V], key K, value V) error {
	return s.Put(t, key, value)
}

// RecordFlag marks key in a flag slice.
func RecordFlag[K comparable](t Trace, s *slicedmap.Slice[K, bool], key K) error {
	return s.Put(t, key, true)
}

// Get reads a fact through the slice's read computation. Missing facts read
// as the slice default.
func Get[K comparable, V any](c slicedmap.Reader, s *slicedmap.Slice[K, V], key K) V {
	return s.Get(c, key)
}

// Lookup is Get that also reports whether a fact was found.
func Lookup[K comparable, V any](c slicedmap.Reader, s *slicedmap.Slice[K, V], key K) (V, bool) {
	return s.Lookup(c, key)
}

// Contains reports a direct fact.
func Contains[K comparable, V any](c slicedmap.Reader, s *slicedmap.Slice[K, V], key K) bool {
	return s.Contains(c, key)
}

// Keys lists the keys with a direct fact in insertion order.
func Keys[K comparable, V any](c slicedmap.Reader, s *slicedmap.Slice[K, V]) []K {
	return s.Keys(c)
}

// Remove deletes a fact of a removable slice.
func Remove[K comparable, V any](t Trace, s *slicedmap.RemovableSlice[K, V], key K) (V, bool, error) {
	return s.Remove(t, key)
}

// ElementsCache indexes the diagnostics of c by element.
func ElementsCache(c Context) *diag.ElementsCache {
	return diag.NewElementsCache(c.Diagnostics())
}

// view hides the write half of a trace.
type view struct {
	reader slicedmap.Reader
	diags  func() *diag.Diagnostics
}

func (v view) Load(key slicedmap.Key) (any, bool) { return v.reader.Load(key) }
func (v view) Range(fn func(slicedmap.Key, any) bool) { v.reader.Range(fn) }
func (v view) KeysOf(slice *slicedmap.Header) []slicedmap.Key { return v.reader.KeysOf(slice) }
func (v view) Diagnostics() *diag.Diagnostics { return v.diags() }
