package slicedmap

import (
	"errors"
	"fmt"
)

var (
	// ErrFrozen is returned by writes to a published map.
	ErrFrozen = errors.New("slicedmap: write after freeze")
	// ErrNotRemovable is returned when deleting from a non-removable slice.
	ErrNotRemovable = errors.New("slicedmap: slice is not removable")
	// ErrRewrite matches every *RewriteViolation via errors.Is.
	ErrRewrite = errors.New("slicedmap: rewrite forbidden")
)

// RewriteViolation reports a second, different value written to a
// (slice, key) whose policy forbids rewrites. Only produced in strict mode.
type RewriteViolation struct {
	Slice string
	Key   any
	Old   any
	New   any
}

func (e *RewriteViolation) Error() string {
	return fmt.Sprintf("rewrite at slice %s key %v: old value %v, new value %v", e.Slice, e.Key, e.Old, e.New)
}

func (e *RewriteViolation) Unwrap() error { return ErrRewrite }
