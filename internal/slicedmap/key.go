package slicedmap

import "fmt"

// Header is the type-erased part of a slice. Its address is the slice
// identity; everything in it is fixed at construction.
type Header struct {
	name       string
	policy     RewritePolicy
	removable  bool
	collective bool
}

// Name is the debug name. It never takes part in identity.
func (h *Header) Name() string { return h.name }

// Policy returns the rewrite policy.
func (h *Header) Policy() RewritePolicy { return h.policy }

// Removable reports whether facts of this slice may be deleted.
func (h *Header) Removable() bool { return h.removable }

// Collective reports whether the map keeps a key index for this slice.
func (h *Header) Collective() bool { return h.collective }

func (h *Header) String() string { return h.name }

// Key is the composite primary key of the store: slice identity plus key
// value. The key value must be comparable at runtime.
type Key struct {
	slice *Header
	key   any
}

// Slice returns the header of the owning slice.
func (k Key) Slice() *Header { return k.slice }

// Value returns the erased key value.
func (k Key) Value() any { return k.key }

func (k Key) String() string {
	if k.slice == nil {
		return fmt.Sprintf("?[%v]", k.key)
	}
	return fmt.Sprintf("%s[%v]", k.slice.name, k.key)
}
