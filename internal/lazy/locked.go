package lazy

import (
	"sync"

	"factdb/internal/gid"
)

// currentGID is swapped in tests.
var currentGID = gid.Current

// Locked is the synchronized variant of Value. The first caller computes,
// other goroutines block until it finishes; a reentrant Get from the
// computing goroutine moves the cell to Errored. Reentrancy is recognized
// by goroutine id; when the id cannot be read (0), callers always wait, so
// a reentrant Get on such a goroutine deadlocks instead of failing.
type Locked[T any] struct {
	mu         sync.Mutex
	cond       *sync.Cond
	compute    func() T
	state      State
	owner      uint64
	value      T
	def        T
	hasDefault bool
	name       string
}

// NewLocked returns a synchronized cell failing on reentry.
func NewLocked[T any](compute func() T) *Locked[T] {
	if compute == nil {
		panic("lazy.NewLocked: nil compute")
	}
	v := &Locked[T]{compute: compute}
	v.cond = sync.NewCond(&v.mu)
	return v
}

// NewLockedWithDefault returns a synchronized cell yielding def on reentry.
func NewLockedWithDefault[T any](compute func() T, def T) *Locked[T] {
	v := NewLocked(compute)
	v.def = def
	v.hasDefault = true
	return v
}

// Named sets the debug label used in reentrancy errors.
func (v *Locked[T]) Named(name string) *Locked[T] {
	v.name = name
	return v
}

// Get returns the memoized value, computing it at most once.
func (v *Locked[T]) Get() (T, error) {
	v.mu.Lock()
	if v.state == Computed {
		value := v.value
		v.mu.Unlock()
		return value, nil
	}

	me := currentGID()
	for v.state == Computing && (me == 0 || v.owner != me) {
		v.cond.Wait()
	}
	switch v.state {
	case Computed:
		value := v.value
		v.mu.Unlock()
		return value, nil
	case Errored:
		v.mu.Unlock()
		return v.recursion()
	case Computing:
		// owner == me, me != 0
		v.state = Errored
		v.cond.Broadcast()
		v.mu.Unlock()
		return v.recursion()
	}

	v.state = Computing
	v.owner = me
	compute := v.compute
	v.mu.Unlock()

	done := false
	defer func() {
		if done {
			return
		}
		v.mu.Lock()
		if v.state == Computing {
			v.state = NotComputed
		}
		v.owner = 0
		v.cond.Broadcast()
		v.mu.Unlock()
	}()
	value := compute()
	done = true

	v.mu.Lock()
	defer v.mu.Unlock()
	v.owner = 0
	v.cond.Broadcast()
	if v.state == Errored {
		return v.recursion()
	}
	v.value = value
	v.state = Computed
	v.compute = nil
	return value, nil
}

// MustGet is Get that panics on reentrancy.
func (v *Locked[T]) MustGet() T {
	value, err := v.Get()
	if err != nil {
		panic(err)
	}
	return value
}

// IsComputed reports a terminal state (Computed or Errored).
func (v *Locked[T]) IsComputed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.terminal()
}

// State returns the current lifecycle state.
func (v *Locked[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *Locked[T]) recursion() (T, error) {
	if v.hasDefault {
		return v.def, nil
	}
	var zero T
	return zero, &ReentrantComputationError{Name: v.name}
}
