// Package slicedmap implements the fact store of the resolver: one
// heterogeneous map keyed by (slice, key) pairs.
//
// A Slice describes one column of facts. It fixes the key and value types,
// the rewrite policy applied when a fact is written twice, an optional
// write guard, an optional post-write hook and the read computation. The
// default read computation returns the stored value or, on a miss, chases
// the slice's further-lookup slices in order before falling back to the
// slice default.
//
// Slices are identified by pointer. Two slices with the same debug name are
// different columns.
//
// Storage is type-erased. Values stored under a slice are always of that
// slice's value type: the only way in is Slice.Put, so the downcast in
// Slice.Get cannot fail for well-formed stores.
//
// # Concurrency
//
// The intended contract is single writer during resolution of a scope, many
// readers once the scope is done. Map guards its storage with a RWMutex and
// applies the rewrite policy atomically with the write, so concurrent
// writers cannot produce duplicate facts, but write ordering across
// goroutines is unspecified. Freeze publishes the map; later writes fail
// with ErrFrozen.
package slicedmap
