package source

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// ElementID is an opaque element handle. NoElement anchors nothing.
type ElementID uint32

const NoElement ElementID = 0

// Element describes one anchor: a named thing at a position.
type Element struct {
	ID   ElementID
	Name string
	File string
	Line uint32 // 1-based, 0 = unknown
	Col  uint32 // 1-based, 0 = unknown
}

// String renders "name@file:line:col", dropping unknown parts.
func (e Element) String() string {
	switch {
	case e.File == "":
		return e.Name
	case e.Line == 0:
		return fmt.Sprintf("%s@%s", e.Name, e.File)
	case e.Col == 0:
		return fmt.Sprintf("%s@%s:%d", e.Name, e.File, e.Line)
	}
	return fmt.Sprintf("%s@%s:%d:%d", e.Name, e.File, e.Line, e.Col)
}

type record struct {
	name StringID
	file StringID
	line uint32
	col  uint32
}

// Elements is an append-only arena of elements. Safe for concurrent use.
type Elements struct {
	mu      sync.RWMutex
	strings *Interner
	items   []record // items[0] is the NoElement slot
	byName  map[StringID]ElementID
}

// NewElements creates an empty arena.
func NewElements() *Elements {
	return &Elements{
		strings: NewInterner(),
		items:   []record{{}},
		byName:  make(map[StringID]ElementID),
	}
}

// Add allocates a new element. Names need not be unique; Lookup returns the
// latest element with a given name.
func (a *Elements) Add(name, file string, line, col uint32) ElementID {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, err := safecast.Conv[uint32](len(a.items))
	if err != nil {
		panic(fmt.Errorf("elements overflow: %w", err))
	}
	id := ElementID(n)
	rec := record{
		name: a.strings.Intern(name),
		file: a.strings.Intern(file),
		line: line,
		col:  col,
	}
	a.items = append(a.items, rec)
	a.byName[rec.name] = id
	return id
}

// Get returns the element for id. NoElement and unknown ids report false.
func (a *Elements) Get(id ElementID) (Element, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id == NoElement || int(id) >= len(a.items) {
		return Element{}, false
	}
	rec := a.items[id]
	return Element{
		ID:   id,
		Name: a.strings.MustLookup(rec.name),
		File: a.strings.MustLookup(rec.file),
		Line: rec.line,
		Col:  rec.col,
	}, true
}

// Lookup finds the latest element named name.
func (a *Elements) Lookup(name string) (ElementID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	sid, ok := a.strings.Find(name)
	if !ok {
		return NoElement, false
	}
	id, ok := a.byName[sid]
	return id, ok
}

// Describe renders id for messages; unknown ids render as "#<id>".
func (a *Elements) Describe(id ElementID) string {
	if a == nil {
		return fmt.Sprintf("#%d", id)
	}
	if e, ok := a.Get(id); ok {
		return e.String()
	}
	return fmt.Sprintf("#%d", id)
}

// Len reports the number of elements, NoElement excluded.
func (a *Elements) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items) - 1
}
