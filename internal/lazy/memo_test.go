package lazy

import (
	"errors"
	"testing"
)

func TestMemoPerKey(t *testing.T) {
	calls := map[string]int{}
	m := NewMemo(func(k string) int {
		calls[k]++
		return len(k)
	})

	for _, k := range []string{"a", "bb", "a", "bb", "ccc"} {
		got, err := m.Get(k)
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if got != len(k) {
			t.Fatalf("Get(%q) = %d", k, got)
		}
	}
	for k, n := range calls {
		if n != 1 {
			t.Fatalf("key %q computed %d times", k, n)
		}
	}
	if m.Len() != 3 || !m.IsComputed("bb") || m.IsComputed("zz") {
		t.Fatalf("unexpected memo bookkeeping")
	}
}

func TestMemoCycle(t *testing.T) {
	edges := map[string]string{"a": "b", "b": "a", "c": ""}
	var m *Memo[string, int]
	m = NewMemo(func(k string) int {
		next := edges[k]
		if next == "" {
			return 0
		}
		depth, err := m.Get(next)
		if err != nil {
			return -100
		}
		return depth + 1
	}).Named("depth")

	if got, err := m.Get("c"); err != nil || got != 0 {
		t.Fatalf("Get(c) = %d, %v", got, err)
	}
	_, err := m.Get("a")
	var reentrant *ReentrantComputationError
	if !errors.As(err, &reentrant) || reentrant.Key != "a" {
		t.Fatalf("Get(a) = %v, want reentrancy on a", err)
	}
}

func TestMemoOnRecursion(t *testing.T) {
	var firsts []bool
	var m *Memo[int, int]
	m = NewMemo(func(k int) int {
		v, _ := m.Get(k)
		return v + 1
	}).OnRecursion(func(k int, first bool) int {
		firsts = append(firsts, first)
		return 100
	})

	if got, err := m.Get(1); err != nil || got != 100 {
		t.Fatalf("Get(1) = %d, %v", got, err)
	}
	if len(firsts) != 2 || !firsts[0] || firsts[1] {
		t.Fatalf("firstTime flags = %v", firsts)
	}
}

func TestSmallCache(t *testing.T) {
	c := NewSmallCache[string, int](2)
	c.Put("x", 1)
	c.Put("y", 2)
	c.Put("x", 3)

	if got, ok := c.Get("x"); !ok || got != 3 {
		t.Fatalf("Get(x) = %d, %v", got, ok)
	}
	if _, ok := c.Get("z"); ok {
		t.Fatalf("unexpected hit")
	}
	computed := 0
	for i := 0; i < 3; i++ {
		c.GetOrCompute("z", func() int { computed++; return 9 })
	}
	if computed != 1 || c.Len() != 3 {
		t.Fatalf("computed=%d len=%d", computed, c.Len())
	}

	if got, stored := c.PutIfAbsent("x", 7); stored || got != 3 {
		t.Fatalf("PutIfAbsent(x) = %d, %v", got, stored)
	}
	if got, stored := c.PutIfAbsent("w", 4); !stored || got != 4 {
		t.Fatalf("PutIfAbsent(w) = %d, %v", got, stored)
	}
	computed = 0
	c.GetOrCompute("w", func() int { computed++; return 0 })
	if computed != 0 || c.Len() != 4 {
		t.Fatalf("computed=%d len=%d", computed, c.Len())
	}

	var order []string
	c.Range(func(k string, _ int) bool {
		order = append(order, k)
		return true
	})
	if len(order) != 4 || order[0] != "x" || order[1] != "y" || order[2] != "z" || order[3] != "w" {
		t.Fatalf("range order = %v", order)
	}
}
