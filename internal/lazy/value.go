package lazy

// Value memoizes the result of compute. Not thread-safe, see package doc.
type Value[T any] struct {
	compute    func() T
	state      State
	value      T
	def        T
	hasDefault bool
	name       string
}

// New returns a cell that fails with *ReentrantComputationError on reentry.
func New[T any](compute func() T) *Value[T] {
	if compute == nil {
		panic("lazy.New: nil compute")
	}
	return &Value[T]{compute: compute}
}

// NewWithDefault returns a cell that yields def instead of failing when
// compute is reentered, and keeps yielding it afterwards.
func NewWithDefault[T any](compute func() T, def T) *Value[T] {
	v := New(compute)
	v.def = def
	v.hasDefault = true
	return v
}

// Named sets the debug label used in reentrancy errors.
func (v *Value[T]) Named(name string) *Value[T] {
	v.name = name
	return v
}

// Get returns the memoized value, running compute on the first call.
func (v *Value[T]) Get() (T, error) {
	switch v.state {
	case Computed:
		return v.value, nil
	case Computing:
		v.state = Errored
		return v.recursion()
	case Errored:
		return v.recursion()
	}

	v.state = Computing
	done := false
	defer func() {
		// compute panicked: nothing was cached, allow a retry
		if !done && v.state == Computing {
			v.state = NotComputed
		}
	}()
	value := v.compute()
	done = true

	if v.state == Errored {
		return v.recursion()
	}
	v.value = value
	v.state = Computed
	v.compute = nil
	return value, nil
}

// MustGet is Get that panics on reentrancy.
func (v *Value[T]) MustGet() T {
	value, err := v.Get()
	if err != nil {
		panic(err)
	}
	return value
}

// IsComputed reports a terminal state (Computed or Errored), not success.
func (v *Value[T]) IsComputed() bool { return v.state.terminal() }

// IsComputing reports whether compute is on the stack.
func (v *Value[T]) IsComputing() bool { return v.state == Computing }

// State returns the current lifecycle state.
func (v *Value[T]) State() State { return v.state }

func (v *Value[T]) recursion() (T, error) {
	if v.hasDefault {
		return v.def, nil
	}
	var zero T
	return zero, &ReentrantComputationError{Name: v.name}
}
