package diag

import (
	"factdb/internal/lazy"
	"factdb/internal/source"
)

type elementIndex map[source.ElementID][]Diagnostic

// indexCell is satisfied by lazy.Value and lazy.Locked.
type indexCell interface {
	Get() (elementIndex, error)
	IsComputed() bool
}

// ElementsCache groups one Diagnostics snapshot by element. The index is
// built once, on the first Get. Caches over synchronized snapshots may be
// queried from several goroutines.
type ElementsCache struct {
	diagnostics *Diagnostics
	index       indexCell
}

// NewElementsCache creates a cache over diagnostics.
func NewElementsCache(diagnostics *Diagnostics) *ElementsCache {
	c := &ElementsCache{diagnostics: diagnostics}
	if diagnostics.Synchronized() {
		c.index = lazy.NewLocked(c.build).Named("diagnostics index")
	} else {
		c.index = lazy.New(c.build).Named("diagnostics index")
	}
	return c
}

// Get returns the diagnostics anchored to element in report order. The
// result is shared; do not modify it.
func (c *ElementsCache) Get(element source.ElementID) []Diagnostic {
	if c.diagnostics.Len() == 0 {
		return nil
	}
	// the build never reads the cache, so it cannot reenter
	index, _ := c.index.Get()
	return index[element]
}

// Built reports whether the index exists yet.
func (c *ElementsCache) Built() bool { return c.index.IsComputed() }

// Diagnostics returns the snapshot the cache was built for.
func (c *ElementsCache) Diagnostics() *Diagnostics { return c.diagnostics }

func (c *ElementsCache) build() elementIndex {
	index := make(elementIndex)
	c.diagnostics.Range(func(d Diagnostic) bool {
		index[d.Element] = append(index[d.Element], d)
		return true
	})
	return index
}
