package slicedmap

import "sync"

// Reader is the read side of a fact store.
type Reader interface {
	// Load returns the raw value stored under key.
	Load(key Key) (any, bool)
	// Range visits facts in insertion order until fn returns false.
	Range(fn func(key Key, value any) bool)
	// KeysOf returns the keys stored under slice in insertion order.
	KeysOf(slice *Header) []Key
}

// Writer is a Reader that accepts writes.
type Writer interface {
	Reader
	// Store applies the slice's rewrite policy and writes value.
	// stored is false when the policy kept the old value.
	Store(key Key, value any) (stored bool, err error)
	// Delete removes the fact under key and returns the old value.
	Delete(key Key) (old any, ok bool, err error)
}

// Options configure a Map.
type Options struct {
	// Strict turns quiet rewrite rejections into *RewriteViolation errors.
	Strict bool
	// Capacity is a size hint.
	Capacity int
}

type entry struct {
	key   Key
	value any
	dead  bool
}

// Map is the default in-memory fact store. See the package doc for the
// concurrency contract.
type Map struct {
	mu      sync.RWMutex
	opts    Options
	index   map[Key]int // position in entries
	entries []entry     // insertion order, dead entries are skipped
	dead    int
	bySlice map[*Header][]Key // only for collective slices
	frozen  bool
}

var _ Writer = (*Map)(nil)

// NewMap creates an empty store.
func NewMap(opts Options) *Map {
	if opts.Capacity < 0 {
		opts.Capacity = 0
	}
	return &Map{
		opts:    opts,
		index:   make(map[Key]int, opts.Capacity),
		entries: make([]entry, 0, opts.Capacity),
		bySlice: make(map[*Header][]Key),
	}
}

// Strict reports whether rewrite violations are loud.
func (m *Map) Strict() bool { return m.opts.Strict }

// Load implements Reader.
func (m *Map) Load(key Key) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].value, true
}

// Range implements Reader. fn runs without the lock held, so it may read
// from or write to the map.
func (m *Map) Range(fn func(Key, any) bool) {
	m.mu.RLock()
	live := make([]entry, 0, len(m.entries)-m.dead)
	for _, e := range m.entries {
		if !e.dead {
			live = append(live, e)
		}
	}
	m.mu.RUnlock()

	for _, e := range live {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// KeysOf implements Reader.
func (m *Map) KeysOf(slice *Header) []Key {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if slice.collective {
		return append([]Key(nil), m.bySlice[slice]...)
	}
	var keys []Key
	for _, e := range m.entries {
		if !e.dead && e.key.slice == slice {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Store implements Writer.
func (m *Map) Store(key Key, value any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frozen {
		return false, ErrFrozen
	}

	if i, ok := m.index[key]; ok {
		write, err := key.slice.policy.admit(m.opts.Strict, key, m.entries[i].value, value)
		if !write {
			return false, err
		}
		m.entries[i].value = value
		return true, nil
	}

	m.index[key] = len(m.entries)
	m.entries = append(m.entries, entry{key: key, value: value})
	if key.slice.collective {
		m.bySlice[key.slice] = append(m.bySlice[key.slice], key)
	}
	return true, nil
}

// Delete implements Writer.
func (m *Map) Delete(key Key) (any, bool, error) {
	if !key.slice.removable {
		return nil, false, ErrNotRemovable
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frozen {
		return nil, false, ErrFrozen
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false, nil
	}
	old := m.entries[i].value
	delete(m.index, key)
	m.entries[i] = entry{dead: true}
	m.dead++
	if key.slice.collective {
		m.bySlice[key.slice] = removeKey(m.bySlice[key.slice], key)
	}
	if m.dead > 32 && m.dead*2 > len(m.entries) {
		m.compact()
	}
	return old, true, nil
}

// Len returns the number of stored facts.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}

// Clear drops every fact.
func (m *Map) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frozen {
		return ErrFrozen
	}
	m.index = make(map[Key]int)
	m.entries = m.entries[:0]
	m.dead = 0
	m.bySlice = make(map[*Header][]Key)
	return nil
}

// Freeze publishes the map. It is idempotent.
func (m *Map) Freeze() {
	m.mu.Lock()
	m.frozen = true
	m.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (m *Map) Frozen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frozen
}

// compact drops dead entries; caller holds the write lock.
func (m *Map) compact() {
	live := make([]entry, 0, len(m.entries)-m.dead)
	for _, e := range m.entries {
		if e.dead {
			continue
		}
		m.index[e.key] = len(live)
		live = append(live, e)
	}
	m.entries = live
	m.dead = 0
}

func removeKey(keys []Key, key Key) []Key {
	for i := range keys {
		if keys[i] == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
