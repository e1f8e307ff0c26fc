package lazy

import "sync"

// SmallCache is a synchronized cache backed by two parallel slices. Lookups
// scan linearly, which beats hashing for the handful of entries it is meant
// for. Writers must not race with each other on the same key.
type SmallCache[K comparable, V any] struct {
	mu     sync.RWMutex
	keys   []K
	values []V
}

// NewSmallCache creates a cache with an optional capacity hint.
func NewSmallCache[K comparable, V any](capacity int) *SmallCache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &SmallCache[K, V]{
		keys:   make([]K, 0, capacity),
		values: make([]V, 0, capacity),
	}
}

// Get returns the cached value for key.
func (c *SmallCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(key); i >= 0 {
		return c.values[i], true
	}
	var zero V
	return zero, false
}

// Put stores value under key, replacing an existing entry in place.
func (c *SmallCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(key); i >= 0 {
		c.values[i] = value
		return
	}
	c.keys = append(c.keys, key)
	c.values = append(c.values, value)
}

// PutIfAbsent stores value unless key is present. It returns the entry
// now cached and whether value was stored.
func (c *SmallCache[K, V]) PutIfAbsent(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(key); i >= 0 {
		return c.values[i], false
	}
	c.keys = append(c.keys, key)
	c.values = append(c.values, value)
	return value, true
}

// GetOrCompute returns the cached value or stores the result of compute.
// compute runs outside the lock; when two callers race, the first stored
// value wins and is returned to both.
func (c *SmallCache[K, V]) GetOrCompute(key K, compute func() V) V {
	if value, ok := c.Get(key); ok {
		return value
	}
	value := compute()

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(key); i >= 0 {
		return c.values[i]
	}
	c.keys = append(c.keys, key)
	c.values = append(c.values, value)
	return value
}

// Len reports the number of entries.
func (c *SmallCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// Range visits entries in insertion order until fn returns false.
func (c *SmallCache[K, V]) Range(fn func(K, V) bool) {
	c.mu.RLock()
	keys := append([]K(nil), c.keys...)
	values := append([]V(nil), c.values...)
	c.mu.RUnlock()

	for i := range keys {
		if !fn(keys[i], values[i]) {
			return
		}
	}
}

func (c *SmallCache[K, V]) index(key K) int {
	for i := range c.keys {
		if c.keys[i] == key {
			return i
		}
	}
	return -1
}
