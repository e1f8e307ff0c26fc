package diag

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"factdb/internal/source"
)

func TestElementsCacheGroupsByElement(t *testing.T) {
	e1, e2, e3 := source.ElementID(1), source.ElementID(2), source.ElementID(3)
	d1 := Unresolved.On(e1, "a")
	d2 := NewError(TypMismatch, e2, "int vs string")
	d3 := Unresolved.On(e1, "b")
	d4 := New(SevWarning, TypUnusedValue, e2, "unused")

	snap := NewDiagnostics([]Diagnostic{d1, d2, d3, d4}, false)
	cache := NewElementsCache(snap)
	if cache.Built() {
		t.Fatalf("index built before first query")
	}

	tests := []struct {
		element source.ElementID
		want    []Diagnostic
	}{
		{e1, []Diagnostic{d1, d3}},
		{e2, []Diagnostic{d2, d4}},
		{e3, nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, cache.Get(tt.element)); diff != "" {
			t.Fatalf("element %d (-want +got):\n%s", tt.element, diff)
		}
		if diff := cmp.Diff(tt.want, snap.ForElement(tt.element), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("scan for element %d (-want +got):\n%s", tt.element, diff)
		}
	}
	if n := snap.Filter(func(d Diagnostic) bool { return d.Severity == SevWarning }).Len(); n != 1 {
		t.Fatalf("warnings = %d, want 1", n)
	}
	if !cache.Built() {
		t.Fatalf("index not built after query")
	}
}

func TestElementsCacheEmptySnapshot(t *testing.T) {
	cache := NewElementsCache(Empty)
	if got := cache.Get(1); len(got) != 0 {
		t.Fatalf("empty snapshot returned %v", got)
	}
	if cache.Built() {
		t.Fatalf("empty snapshot should not build an index")
	}
}

func TestElementsCacheSynchronized(t *testing.T) {
	var items []Diagnostic
	for i := 0; i < 100; i++ {
		items = append(items, NewError(ResRedeclaration, source.ElementID(i%10+1), "dup"))
	}
	cache := NewElementsCache(NewDiagnostics(items, true))

	var wg sync.WaitGroup
	counts := make([]int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i] = len(cache.Get(source.ElementID(i + 1)))
		}(i)
	}
	wg.Wait()
	for i, n := range counts {
		if n != 10 {
			t.Fatalf("element %d: %d diagnostics, want 10", i+1, n)
		}
	}
}

func TestFactoryOn(t *testing.T) {
	f := NewFactory("TYPE_MISMATCH", SevError, TypMismatch, "expected %s, found %s")
	d := f.On(7, "int", "string")
	if d.Factory != f || d.Element != 7 || d.Message != "expected int, found string" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if got := NewFactory("X", SevInfo, ResInfo, "").On(1).Message; got != "Resolution information" {
		t.Fatalf("empty template message = %q", got)
	}
}

func TestBagLimitSortDedup(t *testing.T) {
	b := NewBag(3)
	b.Add(New(SevWarning, TypUnusedValue, 2, "w"))
	b.Add(NewError(TypMismatch, 1, "e"))
	b.Add(NewError(TypMismatch, 1, "e"))
	if b.Add(New(SevInfo, TypInfo, 1, "dropped")) {
		t.Fatalf("limit not enforced")
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("severity queries wrong")
	}
	b.Dedup()
	b.Sort()
	var got []string
	for _, d := range b.Items() {
		got = append(got, d.Message)
	}
	if diff := cmp.Diff([]string{"e", "w"}, got); diff != "" {
		t.Fatalf("bag order (-want +got):\n%s", diff)
	}

	other := NewBag(0)
	other.Add(New(SevInfo, TypInfo, 3, "i"))
	other.Add(New(SevInfo, TypInfo, 4, "j"))
	b.Merge(other)
	if b.Len() != 4 {
		t.Fatalf("merged len = %d, want 4", b.Len())
	}
	if b.Add(New(SevInfo, TypInfo, 5, "k")) {
		t.Fatalf("merge must raise the limit only to the merged size")
	}
}

func TestReporters(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	ReportOn(r, Unresolved, 4, "x").WithNote(5, "declared here").Emit()
	ReportOn(r, Unresolved, 4, "x").Emit()
	b := ReportWarning(r, TypDeprecatedUsage, 4, "old")
	b.Emit()
	b.Emit()

	if bag.Len() != 2 {
		t.Fatalf("bag len = %d, want 2", bag.Len())
	}
	if notes := bag.Items()[0].Notes; len(notes) != 1 || notes[0].Element != 5 {
		t.Fatalf("notes = %+v", notes)
	}
}

func TestFormatShort(t *testing.T) {
	elements := source.NewElements()
	foo := elements.Add("foo", "main.sg", 2, 5)
	bar := elements.Add("bar", "main.sg", 9, 1)

	diags := []Diagnostic{
		New(SevWarning, TypUnusedValue, bar, "unused\nvalue"),
		Unresolved.On(foo, "x").WithNote(bar, "candidate"),
	}
	want := "error RES1001 foo@main.sg:2:5 unresolved reference: x\n" +
		"note RES1001 bar@main.sg:9:1 candidate\n" +
		"warning TYP2004 bar@main.sg:9:1 unused value"
	if got := FormatShort(diags, elements, true); got != want {
		t.Fatalf("unexpected short output:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
}

func TestParseCode(t *testing.T) {
	for _, in := range []string{"RES1001", "res1001", "1001"} {
		c, err := ParseCode(in)
		if err != nil || c != ResUnresolvedReference {
			t.Fatalf("ParseCode(%q) = %v, %v", in, c, err)
		}
	}
	if _, err := ParseCode("RESxyz"); err == nil {
		t.Fatalf("expected error")
	}
}
