package slicedmap

import "fmt"

// SliceOptions configure a slice. The zero value is a plain column with the
// DoNothing policy.
type SliceOptions[K comparable, V any] struct {
	Policy RewritePolicy
	// FurtherLookup slices are consulted in order when a read misses.
	FurtherLookup []*Slice[K, V]
	// Default is returned when nothing is found.
	Default V
	// Check rejects a write quietly when it returns false.
	Check func(key K, value V) bool
	// Compute replaces the default read computation. It runs on every read,
	// hits included; absent reports whether the direct lookup missed.
	Compute func(r Reader, key K, stored V, absent bool) V
	// AfterPut runs after every successful write.
	AfterPut func(w Writer, key K, value V)
	// Collective keeps a per-slice key index in the map.
	Collective bool
}

// Slice is a typed column of the fact store. Immutable once built.
type Slice[K comparable, V any] struct {
	*Header
	further  []*Slice[K, V]
	def      V
	check    func(K, V) bool
	compute  func(Reader, K, V, bool) V
	afterPut func(Writer, K, V)
}

// Entry is one typed fact.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// New builds a slice.
func New[K comparable, V any](name string, opts SliceOptions[K, V]) *Slice[K, V] {
	for i, f := range opts.FurtherLookup {
		if f == nil {
			panic(fmt.Sprintf("slicedmap.New: nil further lookup slice #%d for %s", i, name))
		}
	}
	return &Slice[K, V]{
		Header: &Header{
			name:       name,
			policy:     opts.Policy,
			collective: opts.Collective,
		},
		further:  append([]*Slice[K, V](nil), opts.FurtherLookup...),
		def:      opts.Default,
		check:    opts.Check,
		compute:  opts.Compute,
		afterPut: opts.AfterPut,
	}
}

// Simple builds a slice with the given policy and nothing else.
func Simple[K comparable, V any](name string, policy RewritePolicy) *Slice[K, V] {
	return New(name, SliceOptions[K, V]{Policy: policy})
}

// Flag builds a boolean "set" slice: recording a key stores true, absent
// keys read as false.
func Flag[K comparable](name string, policy RewritePolicy) *Slice[K, bool] {
	return New(name, SliceOptions[K, bool]{Policy: policy, Collective: true})
}

// MakeKey builds the composite key of key under s. Pure.
func (s *Slice[K, V]) MakeKey(key K) Key {
	return Key{slice: s.Header, key: key}
}

// FurtherLookup returns a copy of the fallback chain.
func (s *Slice[K, V]) FurtherLookup() []*Slice[K, V] {
	return append([]*Slice[K, V](nil), s.further...)
}

// Default returns the value read for missing keys.
func (s *Slice[K, V]) Default() V { return s.def }

// Get reads key through the slice's read computation.
func (s *Slice[K, V]) Get(r Reader, key K) V {
	value, _ := s.Lookup(r, key)
	return value
}

// Lookup is Get that also reports whether a fact was found, directly or
// through a further-lookup slice.
func (s *Slice[K, V]) Lookup(r Reader, key K) (V, bool) {
	stored, absent := s.direct(r, key)
	if s.compute != nil {
		return s.compute(r, key, stored, absent), !absent
	}
	if !absent {
		return stored, true
	}
	if value, ok := s.Fallback(r, key); ok {
		return value, true
	}
	return s.def, false
}

// Fallback chases the further-lookup slices only. Custom Compute hooks use
// it to keep fallback behaviour.
func (s *Slice[K, V]) Fallback(r Reader, key K) (V, bool) {
	for _, f := range s.further {
		if value, ok := f.Lookup(r, key); ok {
			return value, true
		}
	}
	var zero V
	return zero, false
}

// Contains reports a direct fact, bypassing the read computation.
func (s *Slice[K, V]) Contains(r Reader, key K) bool {
	_, ok := r.Load(s.MakeKey(key))
	return ok
}

// Put writes value under key. A write rejected by Check is a silent no-op;
// a rejected rewrite is an error only in strict mode.
func (s *Slice[K, V]) Put(w Writer, key K, value V) error {
	if s.check != nil && !s.check(key, value) {
		return nil
	}
	stored, err := w.Store(s.MakeKey(key), value)
	if err != nil || !stored {
		return err
	}
	if s.afterPut != nil {
		s.afterPut(w, key, value)
	}
	return nil
}

// Keys returns the keys with a direct fact, in insertion order.
func (s *Slice[K, V]) Keys(r Reader) []K {
	raw := r.KeysOf(s.Header)
	keys := make([]K, 0, len(raw))
	for _, k := range raw {
		if typed, ok := k.key.(K); ok {
			keys = append(keys, typed)
		}
	}
	return keys
}

// Contents returns the direct facts of the slice in insertion order.
func (s *Slice[K, V]) Contents(r Reader) []Entry[K, V] {
	keys := s.Keys(r)
	out := make([]Entry[K, V], 0, len(keys))
	for _, k := range keys {
		if value, absent := s.direct(r, k); !absent {
			out = append(out, Entry[K, V]{Key: k, Value: value})
		}
	}
	return out
}

func (s *Slice[K, V]) direct(r Reader, key K) (value V, absent bool) {
	raw, ok := r.Load(s.MakeKey(key))
	if !ok {
		return value, true
	}
	// a nil interface value stays the zero V
	value, _ = raw.(V)
	return value, false
}

// RemovableSlice is a slice whose facts may be deleted. The capability is
// carried by the type so plain slices cannot be passed to Remove.
type RemovableSlice[K comparable, V any] struct {
	*Slice[K, V]
}

// NewRemovable builds a removable slice.
func NewRemovable[K comparable, V any](name string, opts SliceOptions[K, V]) *RemovableSlice[K, V] {
	s := New(name, opts)
	s.Header.removable = true
	return &RemovableSlice[K, V]{Slice: s}
}

// Remove deletes the fact under key and returns it.
func (s *RemovableSlice[K, V]) Remove(w Writer, key K) (V, bool, error) {
	var zero V
	raw, ok, err := w.Delete(s.MakeKey(key))
	if err != nil || !ok {
		return zero, false, err
	}
	value, _ := raw.(V)
	return value, true, nil
}
