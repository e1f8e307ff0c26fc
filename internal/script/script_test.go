package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"factdb/internal/binding"
	"factdb/internal/diag"
	"factdb/internal/lazy"
	"factdb/internal/slicedmap"
	"factdb/internal/testkit"
	"factdb/internal/trace"
)

const colors = `
name = "colors"

[[slice]]
name = "NAME_COLOR"
policy = "rewrite-forbidden"

[[slice]]
name = "NAME_OBJECT"
further = ["NAME_COLOR"]

[[slice]]
name = "SCRATCH"
removable = true

[[slice]]
name = "SEEN"
flag = true

[[element]]
name = "red"
file = "colors.sg"
line = 3
col = 1

[[op]]
kind = "record"
slice = "NAME_COLOR"
key = "RED"
value = 16711680

[[op]]
kind = "get"
slice = "NAME_OBJECT"
key = "RED"
expect = 16711680

[[op]]
kind = "contains"
slice = "NAME_OBJECT"
key = "RED"
expect = false

[[op]]
kind = "record"
slice = "NAME_COLOR"
key = "RED"
value = 1
fails = true

[[op]]
kind = "record"
slice = "SEEN"
key = "RED"

[[op]]
kind = "record"
slice = "SCRATCH"
key = "tmp"
value = "x"

[[op]]
kind = "remove"
slice = "SCRATCH"
key = "tmp"
expect = "x"

[[op]]
kind = "get"
slice = "SCRATCH"
key = "tmp"
absent = true

[[op]]
kind = "report"
element = "red"
severity = "warning"
code = "TYP2004"
message = "unused color"

[[op]]
kind = "freeze"
`

func TestRunColors(t *testing.T) {
	s, err := Parse("colors.toml", []byte(colors))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := Run(context.Background(), s, binding.Options{Strict: true, Track: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.OK() {
		t.Fatalf("failures: %v", res.Failures)
	}
	if !res.Trace.Frozen() {
		t.Fatalf("trace not frozen")
	}
	if err := testkit.CheckContextInvariants(res.Context(), res.Registry, res.Elements); err != nil {
		t.Fatalf("invariants: %v", err)
	}

	seen, ok := slicedmap.Lookup[string, any](res.Registry, "SEEN")
	if !ok || seen.Get(res.Context(), "RED") != true {
		t.Fatalf("flag slice not recorded")
	}
	if got := len(res.Trace.Writes()); got != 4 {
		t.Fatalf("tracked writes = %d, want 4", got)
	}
	diags := res.Context().Diagnostics().Items()
	if len(diags) != 1 || diags[0].Message != "unused color" {
		t.Fatalf("diagnostics = %+v", diags)
	}
	red, _ := res.Elements.Lookup("red")
	if got := binding.ElementsCache(res.Context()).Get(red); len(got) != 1 {
		t.Fatalf("diagnostics on red = %d", len(got))
	}

	rejected := res.Rejected.Items()
	if len(rejected) != 1 || rejected[0].Code != diag.FctRewriteViolation {
		t.Fatalf("rejected = %+v", rejected)
	}
	if want := "fact NAME_COLOR[RED] rejected, it already holds 16711680"; rejected[0].Message != want {
		t.Fatalf("rejected message = %q, want %q", rejected[0].Message, want)
	}
	if n := res.Diagnostics().Len(); n != 2 {
		t.Fatalf("merged diagnostics = %d, want 2", n)
	}
}

const lateReport = `
name = "late"

[[element]]
name = "x"
file = "late.sg"
line = 1
col = 1

[[op]]
kind = "freeze"

[[op]]
kind = "report"
element = "x"
message = "late"
`

func TestRunReportAfterFreeze(t *testing.T) {
	tests := []struct {
		strict   bool
		failures int
		rejected int
	}{
		{strict: true, failures: 1, rejected: 1},
		{strict: false, failures: 0, rejected: 0},
	}
	for _, tt := range tests {
		s, err := Parse("late.toml", []byte(lateReport))
		if err != nil {
			t.Fatal(err)
		}
		res, err := Run(context.Background(), s, binding.Options{Strict: tt.strict})
		if err != nil {
			t.Fatalf("strict=%v: run: %v", tt.strict, err)
		}
		if got := len(res.Failures); got != tt.failures {
			t.Fatalf("strict=%v: failures = %v", tt.strict, res.Failures)
		}
		if got := res.Rejected.Len(); got != tt.rejected {
			t.Fatalf("strict=%v: rejected = %d, want %d", tt.strict, got, tt.rejected)
		}
		if n := res.Context().Diagnostics().Len(); n != 0 {
			t.Fatalf("strict=%v: late report reached the trace", tt.strict)
		}
		if tt.strict {
			x, _ := res.Elements.Lookup("x")
			d := res.Rejected.Items()[0]
			if d.Code != diag.FctWriteAfterFreeze || d.Element != x {
				t.Fatalf("rejected = %+v", d)
			}
		}
	}

	// fails = true turns the strict rejection into an expectation
	s, err := Parse("late.toml", []byte(lateReport+"fails = true\n"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Run(context.Background(), s, binding.Options{Strict: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() {
		t.Fatalf("failures = %v", res.Failures)
	}
}

func TestRunReportsFailedExpectations(t *testing.T) {
	s, err := Parse("bad.toml", []byte(`
[[slice]]
name = "S"

[[op]]
kind = "record"
slice = "S"
key = "a"
value = 1

[[op]]
kind = "get"
slice = "S"
key = "a"
expect = 2

[[op]]
kind = "get"
slice = "S"
key = "a"
absent = true
`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Run(context.Background(), s, binding.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var idx []int
	for _, f := range res.Failures {
		idx = append(idx, f.Index)
	}
	if diff := cmp.Diff([]int{1, 2}, idx); diff != "" {
		t.Fatalf("failed ops (-want +got):\n%s", diff)
	}
}

func TestFurtherLookupCycle(t *testing.T) {
	s, err := Parse("cycle.toml", []byte(`
[[slice]]
name = "A"
further = ["B"]

[[slice]]
name = "B"
further = ["A"]
`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Run(context.Background(), s, binding.Options{})
	if !errors.Is(err, lazy.ErrReentrant) {
		t.Fatalf("err = %v, want reentrant computation", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"[[op]]\nkind = \"jump\"\n", "unknown op kind"},
		{"[[op]]\nkind = \"get\"\nslice = \"X\"\n", "unknown slice"},
		{"[[slice]]\nname = \"S\"\n[[slice]]\nname = \"S\"\n", "declared twice"},
		{"[[slice]]\nname = \"S\"\n[[op]]\nkind = \"remove\"\nslice = \"S\"\n", "not removable"},
		{"[[slice]]\nname = \"S\"\n[[op]]\nkind = \"record\"\nslice = \"S\"\nkey = \"k\"\n", "missing value"},
		{"[[op]]\nkind = \"report\"\nelement = \"nope\"\nmessage = \"m\"\n", "unknown element"},
		{"[[op]]\nkind = \"freeze\"\nelement = \"nope\"\n", "unknown element"},
		{"[[slice]]\nnmae = \"S\"\n", "unknown key"},
	}
	for _, tt := range tests {
		_, err := Parse("t.toml", []byte(tt.body))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("body %q: err = %v, want %q", tt.body, err, tt.want)
		}
	}
}

func TestKeysAreNFC(t *testing.T) {
	s, err := Parse("nfc.toml", []byte(`
[[slice]]
name = "S"

[[op]]
kind = "record"
slice = "S"
key = "caf\u00e9"
value = 1

[[op]]
kind = "get"
slice = "S"
key = "cafe\u0301"
expect = 1
`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Run(context.Background(), s, binding.Options{})
	if err != nil || !res.OK() {
		t.Fatalf("run: %v, failures %v", err, res.Failures)
	}
}

func TestLoadAndTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.toml")
	if err := os.WriteFile(path, []byte(colors), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	ring := trace.NewRingTracer(128, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)
	if _, err := Run(ctx, s, binding.Options{}); err != nil {
		t.Fatal(err)
	}
	var slices int
	for _, ev := range ring.Snapshot() {
		if ev.Name == "slice" {
			slices++
		}
	}
	if slices != 4 {
		t.Fatalf("slice events = %d, want 4", slices)
	}
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	s, err := Parse("c.toml", []byte(colors))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, s, binding.Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
