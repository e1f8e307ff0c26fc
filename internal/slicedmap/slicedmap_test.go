package slicedmap

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"factdb/internal/trace"
)

func TestSameNameSlicesDoNotCollide(t *testing.T) {
	a := Simple[string, int]("TWIN", DoNothing)
	b := Simple[string, int]("TWIN", DoNothing)
	m := NewMap(Options{})

	if err := a.Put(m, "X", 1); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := b.Put(m, "X", 2); err != nil {
		t.Fatalf("put b: %v", err)
	}
	if got := a.Get(m, "X"); got != 1 {
		t.Fatalf("a[X] = %d, want 1", got)
	}
	if got := b.Get(m, "X"); got != 2 {
		t.Fatalf("b[X] = %d, want 2", got)
	}
	if m.Len() != 2 {
		t.Fatalf("len = %d, want 2", m.Len())
	}
}

func TestRewritePolicies(t *testing.T) {
	tests := []struct {
		policy  RewritePolicy
		strict  bool
		want    int
		wantErr bool
	}{
		{DoNothing, false, 2, false},
		{DoNothing, true, 2, false},
		{RewritesAllowed, false, 2, false},
		{RewritesAllowed, true, 2, false},
		{RewriteForbidden, false, 1, false},
		{RewriteForbidden, true, 1, true},
		{RewriteWithAssertionOnStrictMode, false, 2, false},
		{RewriteWithAssertionOnStrictMode, true, 1, true},
	}
	for _, tt := range tests {
		s := Simple[string, int]("S", tt.policy)
		m := NewMap(Options{Strict: tt.strict})
		if err := s.Put(m, "k", 1); err != nil {
			t.Fatalf("%s strict=%v: first put: %v", tt.policy, tt.strict, err)
		}
		err := s.Put(m, "k", 2)
		if tt.wantErr {
			var violation *RewriteViolation
			if !errors.As(err, &violation) || !errors.Is(err, ErrRewrite) {
				t.Fatalf("%s strict=%v: err = %v, want *RewriteViolation", tt.policy, tt.strict, err)
			}
			if violation.Old != 1 || violation.New != 2 || violation.Slice != "S" {
				t.Fatalf("violation = %+v", violation)
			}
		} else if err != nil {
			t.Fatalf("%s strict=%v: unexpected err %v", tt.policy, tt.strict, err)
		}
		if got := s.Get(m, "k"); got != tt.want {
			t.Fatalf("%s strict=%v: value = %d, want %d", tt.policy, tt.strict, got, tt.want)
		}
	}
}

func TestRewriteWithEqualValueIsAccepted(t *testing.T) {
	s := Simple[string, []string]("LIST", RewriteForbidden)
	m := NewMap(Options{Strict: true})
	if err := s.Put(m, "k", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(m, "k", []string{"a"}); err != nil {
		t.Fatalf("equal rewrite rejected: %v", err)
	}
}

type boxed struct{ V any }

func TestRewriteOfInterfaceHeldSlice(t *testing.T) {
	for _, strict := range []bool{true, false} {
		s := Simple[string, boxed]("BOX", RewriteForbidden)
		m := NewMap(Options{Strict: strict})
		if err := s.Put(m, "k", boxed{[]int{1}}); err != nil {
			t.Fatal(err)
		}
		if err := s.Put(m, "k", boxed{[]int{1}}); err != nil {
			t.Fatalf("strict=%v: equal rewrite rejected: %v", strict, err)
		}
		err := s.Put(m, "k", boxed{[]int{2}})
		if strict && !errors.Is(err, ErrRewrite) {
			t.Fatalf("strict: err = %v, want ErrRewrite", err)
		}
		if !strict && err != nil {
			t.Fatalf("lenient: err = %v", err)
		}
		if got := s.Get(m, "k"); !cmp.Equal(got, boxed{[]int{1}}) {
			t.Fatalf("strict=%v: value = %v, want the first one", strict, got)
		}
	}
}

func TestParseRewritePolicy(t *testing.T) {
	for _, p := range []RewritePolicy{DoNothing, RewritesAllowed, RewriteForbidden, RewriteWithAssertionOnStrictMode} {
		got, err := ParseRewritePolicy(strings.ToUpper(p.String()))
		if err != nil || got != p {
			t.Fatalf("parse %q = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseRewritePolicy("whatever"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestFurtherLookupFallback(t *testing.T) {
	nameColor := Simple[string, int]("NAME_COLOR", RewriteForbidden)
	nameObject := New("NAME_OBJECT", SliceOptions[string, int]{
		FurtherLookup: []*Slice[string, int]{nameColor},
	})
	m := NewMap(Options{Strict: true})

	if err := nameColor.Put(m, "RED", 0xff0000); err != nil {
		t.Fatal(err)
	}
	got, ok := nameObject.Lookup(m, "RED")
	if !ok || got != 0xff0000 {
		t.Fatalf("NAME_OBJECT[RED] = %#x, %v; want 0xff0000 via fallback", got, ok)
	}
	if nameObject.Contains(m, "RED") {
		t.Fatalf("fallback must not create a direct fact")
	}
	if len(nameObject.Keys(m)) != 0 {
		t.Fatalf("NAME_OBJECT has direct keys")
	}

	// a direct fact shadows the fallback
	if err := nameObject.Put(m, "RED", 1); err != nil {
		t.Fatal(err)
	}
	if got := nameObject.Get(m, "RED"); got != 1 {
		t.Fatalf("direct value = %d, want 1", got)
	}
}

func TestMissingKeyReadsDefault(t *testing.T) {
	plain := Simple[string, int]("SUPER_COMPUTER", DoNothing)
	withDefault := New("WITH_DEFAULT", SliceOptions[string, int]{Default: -1})
	m := NewMap(Options{})

	if v, ok := plain.Lookup(m, "Missing"); ok || v != 0 {
		t.Fatalf("plain missing = %d, %v", v, ok)
	}
	if v := withDefault.Get(m, "Missing"); v != -1 {
		t.Fatalf("default missing = %d, want -1", v)
	}
}

func TestComputeHookRunsOnHits(t *testing.T) {
	calls := 0
	s := New("DOUBLED", SliceOptions[string, int]{
		Compute: func(_ Reader, _ string, stored int, absent bool) int {
			calls++
			if absent {
				return -1
			}
			return stored * 2
		},
	})
	m := NewMap(Options{})
	if err := s.Put(m, "a", 21); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(m, "a"); got != 42 {
		t.Fatalf("computed = %d, want 42", got)
	}
	if got := s.Get(m, "b"); got != -1 {
		t.Fatalf("computed missing = %d, want -1", got)
	}
	if calls != 2 {
		t.Fatalf("compute calls = %d, want 2", calls)
	}
}

func TestCheckAndAfterPut(t *testing.T) {
	mirror := Simple[string, int]("MIRROR", DoNothing)
	s := New("POSITIVE", SliceOptions[string, int]{
		Check: func(_ string, v int) bool { return v > 0 },
		AfterPut: func(w Writer, key string, v int) {
			_ = mirror.Put(w, key, -v)
		},
	})
	m := NewMap(Options{})
	if err := s.Put(m, "neg", -5); err != nil {
		t.Fatal(err)
	}
	if s.Contains(m, "neg") || mirror.Contains(m, "neg") {
		t.Fatalf("rejected write left a fact")
	}
	if err := s.Put(m, "pos", 5); err != nil {
		t.Fatal(err)
	}
	if got := mirror.Get(m, "pos"); got != -5 {
		t.Fatalf("after-put mirror = %d, want -5", got)
	}
}

func TestFlagAndKeysOrder(t *testing.T) {
	seen := Flag[string]("SEEN", DoNothing)
	m := NewMap(Options{})
	for _, k := range []string{"c", "a", "b"} {
		if err := seen.Put(m, k, true); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, seen.Keys(m)); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if seen.Get(m, "zzz") {
		t.Fatalf("absent flag reads true")
	}
}

func TestRemovable(t *testing.T) {
	plain := Simple[string, int]("PLAIN", DoNothing)
	rem := NewRemovable("REM", SliceOptions[string, int]{Collective: true})
	m := NewMap(Options{})
	_ = plain.Put(m, "k", 1)
	_ = rem.Put(m, "k", 2)
	_ = rem.Put(m, "j", 3)

	if _, _, err := m.Delete(plain.MakeKey("k")); !errors.Is(err, ErrNotRemovable) {
		t.Fatalf("delete on plain slice: err = %v", err)
	}
	old, ok, err := rem.Remove(m, "k")
	if err != nil || !ok || old != 2 {
		t.Fatalf("remove = %d, %v, %v", old, ok, err)
	}
	if rem.Contains(m, "k") {
		t.Fatalf("removed key still present")
	}
	if _, ok, _ := rem.Remove(m, "k"); ok {
		t.Fatalf("second remove reported a value")
	}
	want := []Entry[string, int]{{Key: "j", Value: 3}}
	if diff := cmp.Diff(want, rem.Contents(m)); diff != "" {
		t.Fatalf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveManyCompacts(t *testing.T) {
	rem := NewRemovable("REM", SliceOptions[int, int]{})
	m := NewMap(Options{})
	for i := 0; i < 100; i++ {
		_ = rem.Put(m, i, i)
	}
	for i := 0; i < 90; i++ {
		if _, ok, err := rem.Remove(m, i); !ok || err != nil {
			t.Fatalf("remove %d: %v %v", i, ok, err)
		}
	}
	keys := rem.Keys(m)
	if len(keys) != 10 || keys[0] != 90 || keys[9] != 99 {
		t.Fatalf("keys after compaction = %v", keys)
	}
	if got := rem.Get(m, 95); got != 95 {
		t.Fatalf("rem[95] = %d", got)
	}
}

func TestFreeze(t *testing.T) {
	s := Simple[string, int]("S", DoNothing)
	m := NewMap(Options{})
	_ = s.Put(m, "a", 1)
	m.Freeze()
	m.Freeze()
	if err := s.Put(m, "b", 2); !errors.Is(err, ErrFrozen) {
		t.Fatalf("put after freeze: %v", err)
	}
	if err := m.Clear(); !errors.Is(err, ErrFrozen) {
		t.Fatalf("clear after freeze: %v", err)
	}
	if got := s.Get(m, "a"); got != 1 {
		t.Fatalf("read after freeze = %d", got)
	}
}

func TestTrackingMapLogsWrites(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	s := Simple[string, int]("S", RewriteForbidden)
	rem := NewRemovable("R", SliceOptions[string, int]{})
	tm := NewTrackingMap(NewMap(Options{Strict: true}), TrackingOptions{CaptureStacks: true, Tracer: ring})

	_ = s.Put(tm, "a", 1)
	_ = rem.Put(tm, "b", 2)
	if err := s.Put(tm, "a", 3); err == nil {
		t.Fatalf("expected violation")
	}
	if _, _, err := rem.Remove(tm, "b"); err != nil {
		t.Fatal(err)
	}

	writes := tm.Writes()
	if len(writes) != 3 {
		t.Fatalf("writes = %d, want 3", len(writes))
	}
	for i := 1; i < len(writes); i++ {
		if writes[i].Seq <= writes[i-1].Seq {
			t.Fatalf("write log out of order: %+v", writes)
		}
	}
	if !writes[2].Removed || writes[2].Value != 2 {
		t.Fatalf("last write = %+v, want removal of 2", writes[2])
	}
	origin, ok := tm.Origin(s.MakeKey("a"))
	if !ok || origin.Value != 1 || !strings.Contains(origin.Stack, "goroutine") {
		t.Fatalf("origin = %+v, %v", origin, ok)
	}

	var kinds []trace.Kind
	for _, ev := range ring.Snapshot() {
		kinds = append(kinds, ev.Kind)
	}
	want := []trace.Kind{trace.KindPoint, trace.KindPoint, trace.KindError, trace.KindPoint}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("trace kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := Simple[string, int]("A", DoNothing)
	b := Simple[string, string]("B", DoNothing)
	if err := Register(r, a); err != nil {
		t.Fatal(err)
	}
	if err := Register(r, b); err != nil {
		t.Fatal(err)
	}
	if err := Register(r, a); err != nil {
		t.Fatalf("re-registering the same slice: %v", err)
	}
	if err := Register(r, Simple[string, int]("A", DoNothing)); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	got, ok := Lookup[string, int](r, "A")
	if !ok || got != a {
		t.Fatalf("lookup A = %v, %v", got, ok)
	}
	if _, ok := Lookup[string, int](r, "B"); ok {
		t.Fatalf("lookup with wrong types must fail")
	}
	var names []string
	for _, h := range r.Headers() {
		names = append(names, h.Name())
	}
	if diff := cmp.Diff([]string{"A", "B"}, names); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryConcurrentSameName(t *testing.T) {
	r := NewRegistry()
	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = Register(r, Simple[string, int]("RACE", DoNothing))
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 1 || r.Len() != 1 {
		t.Fatalf("successful registrations = %d, len = %d, want 1 and 1", ok, r.Len())
	}
}
