package diag

import "factdb/internal/source"

// Reporter: минимальный контракт получения диагностик.
// Реализации: BagReporter, DedupReporter, MultiReporter, binding traces.
type Reporter interface {
	Report(d Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to Reporter.
func NewReportBuilder(r Reporter, sev Severity, code Code, element source.ElementID, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag:     New(sev, code, element, msg),
	}
}

// ReportOn starts a builder from a factory.
func ReportOn(r Reporter, f *Factory, element source.ElementID, args ...any) *ReportBuilder {
	return &ReportBuilder{reporter: r, diag: f.On(element, args...)}
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, element source.ElementID, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, element, msg)
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, element source.ElementID, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, element, msg)
}

// WithNote appends a note to diagnostic.
func (b *ReportBuilder) WithNote(element source.ElementID, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithNote(element, msg)
	return b
}

// Emit sends diagnostic to underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
	b.emitted = true
}

// Diagnostic returns accumulated diagnostic without emitting.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter: адаптер, который пишет в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// MultiReporter fans a diagnostic out to every reporter.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}
