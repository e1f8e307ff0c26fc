package script

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"factdb/internal/binding"
	"factdb/internal/diag"
	"factdb/internal/lazy"
	"factdb/internal/slicedmap"
	"factdb/internal/source"
	"factdb/internal/trace"
)

// Failure is an operation whose outcome did not match the script.
type Failure struct {
	Index int // 0-based op index, -1 for whole-run checks
	Op    Op
	Msg   string
}

func (f Failure) String() string {
	if f.Index < 0 {
		return f.Msg
	}
	return fmt.Sprintf("op #%d (%s): %s", f.Index+1, f.Op, f.Msg)
}

// Read is the outcome of a get op.
type Read struct {
	Op    Op
	Value any
	Found bool
}

// Result is what a run leaves behind.
type Result struct {
	Script   *Script
	Trace    *binding.SimpleTrace
	Registry *slicedmap.Registry
	Elements *source.Elements
	Reads    []Read
	Failures []Failure
	// Rejected holds the store's own diagnostics for writes and reports it
	// refused (rewrite violations, writes after freeze). They are kept
	// apart from the trace, which may already be frozen.
	Rejected *diag.Bag
}

// Context returns the read-only view of the run's trace.
func (r *Result) Context() binding.Context { return r.Trace.BindingContext() }

// Diagnostics merges the trace's diagnostics with the rejected ones,
// sorted by element.
func (r *Result) Diagnostics() *diag.Diagnostics {
	all := diag.NewBag(0)
	for _, d := range r.Trace.Diagnostics().Items() {
		all.Add(d)
	}
	all.Merge(r.Rejected)
	all.Sort()
	return diag.NewDiagnostics(all.Items(), false)
}

// OK reports whether every expectation held.
func (r *Result) OK() bool { return len(r.Failures) == 0 }

type builtSlice struct {
	slice     *slicedmap.Slice[string, any]
	removable *slicedmap.RemovableSlice[string, any]
	err       error
}

type runner struct {
	script   *Script
	tr       *binding.SimpleTrace
	tracer   trace.Tracer
	span     uint64
	slices   map[string]builtSlice
	elements *source.Elements
	result   *Result
}

// Run executes s on a fresh trace. Setup problems (bad policies, further
// lookup cycles, bad codes) are returned as errors; unmet expectations end
// up in Result.Failures.
func Run(ctx context.Context, s *Script, opts binding.Options) (*Result, error) {
	if opts.Tracer == nil {
		opts.Tracer = trace.FromContext(ctx)
	}
	if opts.Name == "" {
		opts.Name = s.Name
	}
	span := trace.Begin(opts.Tracer, trace.ScopeSession, "script", trace.CurrentSpan(ctx)).
		WithExtra("name", s.Name)
	opts.Parent = span.ID()

	r := &runner{
		script:   s,
		tr:       binding.NewTrace(opts),
		tracer:   opts.Tracer,
		span:     span.ID(),
		elements: source.NewElements(),
	}
	r.result = &Result{
		Script:   s,
		Trace:    r.tr,
		Registry: slicedmap.NewRegistry(),
		Elements: r.elements,
		Rejected: diag.NewBag(0),
	}

	if err := r.declare(); err != nil {
		span.End("setup failed")
		return nil, err
	}
	for i, op := range s.Ops {
		if err := ctx.Err(); err != nil {
			span.End("canceled")
			return nil, err
		}
		if err := r.exec(i, op); err != nil {
			span.End("failed")
			return nil, fmt.Errorf("%s: op #%d (%s): %w", s.Name, i+1, op, err)
		}
	}
	span.End(fmt.Sprintf("%d ops, %d failures", len(s.Ops), len(r.result.Failures)))
	return r.result, nil
}

func (r *runner) declare() error {
	decls := make(map[string]SliceDecl, len(r.script.Slices))
	for _, d := range r.script.Slices {
		decls[d.Name] = d
	}

	var memo *lazy.Memo[string, builtSlice]
	memo = lazy.NewMemo(func(name string) builtSlice {
		d := decls[name]
		policy, err := slicedmap.ParseRewritePolicy(d.Policy)
		if err != nil {
			return builtSlice{err: fmt.Errorf("slice %q: %w", name, err)}
		}
		opts := slicedmap.SliceOptions[string, any]{
			Policy:     policy,
			Default:    d.Default,
			Collective: d.Collective || d.Flag,
		}
		if d.Flag {
			opts.Default = false
		}
		for _, f := range d.Further {
			if _, ok := decls[f]; !ok {
				return builtSlice{err: fmt.Errorf("slice %q: unknown further lookup slice %q", name, f)}
			}
			further, err := memo.Get(f)
			if err != nil {
				return builtSlice{err: fmt.Errorf("slice %q: further lookup %q: %w", name, f, err)}
			}
			if further.err != nil {
				return further
			}
			opts.FurtherLookup = append(opts.FurtherLookup, further.slice)
		}
		if d.Removable {
			rs := slicedmap.NewRemovable(name, opts)
			return builtSlice{slice: rs.Slice, removable: rs}
		}
		return builtSlice{slice: slicedmap.New(name, opts)}
	}).Named("slices")

	r.slices = make(map[string]builtSlice, len(decls))
	for _, d := range r.script.Slices {
		b, err := memo.Get(d.Name)
		if err != nil {
			return fmt.Errorf("%s: slice %q: %w", r.script.Name, d.Name, err)
		}
		if b.err != nil {
			return fmt.Errorf("%s: %w", r.script.Name, b.err)
		}
		if err := slicedmap.Register(r.result.Registry, b.slice); err != nil {
			return fmt.Errorf("%s: %w", r.script.Name, err)
		}
		r.slices[d.Name] = b
		trace.Point(r.tracer, trace.ScopeSlice, "slice", fmt.Sprintf("%s (%s)", d.Name, b.slice.Policy()), r.span)
	}

	for _, e := range r.script.Elements {
		r.elements.Add(e.Name, e.File, e.Line, e.Col)
	}
	return nil
}

func (r *runner) fail(i int, op Op, format string, args ...any) {
	r.result.Failures = append(r.result.Failures, Failure{Index: i, Op: op, Msg: fmt.Sprintf(format, args...)})
}

// checkErr records a failure when err does not match op.Fails.
func (r *runner) checkErr(i int, op Op, err error) bool {
	switch {
	case err != nil && !op.Fails:
		r.fail(i, op, "unexpected error: %v", err)
		return false
	case err == nil && op.Fails:
		r.fail(i, op, "expected an error")
		return false
	}
	return err == nil
}

func (r *runner) exec(i int, op Op) error {
	b := r.slices[op.Slice]
	switch op.Kind {
	case OpRecord:
		value := op.Value
		if value == nil {
			value = true
		}
		err := binding.Record(r.tr, b.slice, op.Key, value)
		r.reject(op, err)
		r.checkErr(i, op, err)

	case OpGet:
		value, found := binding.Lookup(r.tr, b.slice, op.Key)
		r.result.Reads = append(r.result.Reads, Read{Op: op, Value: value, Found: found})
		switch {
		case op.Absent && found:
			r.fail(i, op, "expected no fact, got %v", value)
		case !op.Absent && op.Expect != nil && !reflect.DeepEqual(op.Expect, value):
			r.fail(i, op, "got %v (%T), want %v (%T)", value, value, op.Expect, op.Expect)
		}

	case OpContains:
		got := binding.Contains(r.tr, b.slice, op.Key)
		if want, ok := op.Expect.(bool); ok && want != got {
			r.fail(i, op, "contains = %v, want %v", got, want)
		}

	case OpRemove:
		old, removed, err := binding.Remove(r.tr, b.removable, op.Key)
		r.reject(op, err)
		if !r.checkErr(i, op, err) {
			return nil
		}
		if op.Expect != nil && (!removed || !reflect.DeepEqual(op.Expect, old)) {
			r.fail(i, op, "removed %v (found=%v), want %v", old, removed, op.Expect)
		}

	case OpReport:
		d, err := r.diagnostic(op)
		if err != nil {
			return err
		}
		if r.tr.Frozen() && r.tr.Strict() {
			// a strict trace panics here; the script gets a failure instead
			err := fmt.Errorf("report %s after freeze: %w", d.Code.ID(), slicedmap.ErrFrozen)
			r.reject(op, err)
			r.checkErr(i, op, err)
			return nil
		}
		r.tr.Report(d)
		r.checkErr(i, op, nil)

	case OpFreeze:
		r.tr.Freeze()
	}
	return nil
}

// reject files a store diagnostic for an op the store refused.
func (r *runner) reject(op Op, err error) {
	if err == nil {
		return
	}
	fact := fmt.Sprintf("%s[%s]", op.Slice, op.Key)
	var violation *slicedmap.RewriteViolation
	switch {
	case errors.As(err, &violation):
		r.result.Rejected.Add(diag.RewriteViolation.On(r.element(op), fact, violation.Old))
	case errors.Is(err, slicedmap.ErrFrozen):
		what := fact
		if op.Kind == OpReport {
			what = "report"
		}
		r.result.Rejected.Add(diag.WriteAfterFreeze.On(r.element(op), what))
	}
}

func (r *runner) element(op Op) source.ElementID {
	if op.Element == "" {
		return source.NoElement
	}
	id, _ := r.elements.Lookup(op.Element)
	return id
}

func (r *runner) diagnostic(op Op) (diag.Diagnostic, error) {
	sev, err := diag.ParseSeverity(op.Severity)
	if err != nil {
		return diag.Diagnostic{}, err
	}
	code := diag.UnknownCode
	if op.Code != "" {
		if code, err = diag.ParseCode(op.Code); err != nil {
			return diag.Diagnostic{}, err
		}
	}
	msg := op.Message
	if msg == "" {
		msg = code.Title()
	}
	return diag.New(sev, code, r.element(op), msg), nil
}
