package lazy

// Memo memoizes compute per key. A key whose computation asks for the same
// key again is reported as reentrant; OnRecursion, when set, supplies the
// value instead. Not thread-safe.
type Memo[K comparable, V any] struct {
	compute     func(K) V
	onRecursion func(key K, firstTime bool) V
	cells       map[K]*memoCell[V]
	name        string
}

type memoCell[V any] struct {
	state State
	value V
}

// NewMemo returns an empty memo over compute.
func NewMemo[K comparable, V any](compute func(K) V) *Memo[K, V] {
	if compute == nil {
		panic("lazy.NewMemo: nil compute")
	}
	return &Memo[K, V]{
		compute: compute,
		cells:   make(map[K]*memoCell[V]),
	}
}

// OnRecursion installs a fallback for reentrant keys. firstTime is true on
// the call that detected the cycle and false on later reads of that key.
func (m *Memo[K, V]) OnRecursion(fn func(key K, firstTime bool) V) *Memo[K, V] {
	m.onRecursion = fn
	return m
}

// Named sets the debug label used in reentrancy errors.
func (m *Memo[K, V]) Named(name string) *Memo[K, V] {
	m.name = name
	return m
}

// Get returns the memoized result for key.
func (m *Memo[K, V]) Get(key K) (V, error) {
	cell, ok := m.cells[key]
	if !ok {
		cell = &memoCell[V]{}
		m.cells[key] = cell
	}
	switch cell.state {
	case Computed:
		return cell.value, nil
	case Computing:
		cell.state = Errored
		return m.recursion(key, true)
	case Errored:
		return m.recursion(key, false)
	}

	cell.state = Computing
	done := false
	defer func() {
		if !done && cell.state == Computing {
			delete(m.cells, key)
		}
	}()
	value := m.compute(key)
	done = true

	if cell.state == Errored {
		return m.recursion(key, false)
	}
	cell.value = value
	cell.state = Computed
	return value, nil
}

// IsComputed reports whether key reached a terminal state.
func (m *Memo[K, V]) IsComputed(key K) bool {
	cell, ok := m.cells[key]
	return ok && cell.state.terminal()
}

// Len is the number of keys seen so far.
func (m *Memo[K, V]) Len() int { return len(m.cells) }

func (m *Memo[K, V]) recursion(key K, firstTime bool) (V, error) {
	if m.onRecursion != nil {
		return m.onRecursion(key, firstTime), nil
	}
	var zero V
	return zero, &ReentrantComputationError{Name: m.name, Key: key}
}
