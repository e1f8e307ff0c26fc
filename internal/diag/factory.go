package diag

import (
	"fmt"

	"factdb/internal/source"
)

// Factory describes one kind of diagnostic. Factories are declared once as
// package-level values and compared by pointer.
type Factory struct {
	Name     string
	Code     Code
	Severity Severity
	// Template is a fmt format applied to the On arguments. Empty means the
	// code title.
	Template string
}

// NewFactory declares a diagnostic kind.
func NewFactory(name string, sev Severity, code Code, template string) *Factory {
	return &Factory{Name: name, Code: code, Severity: sev, Template: template}
}

// On builds a diagnostic anchored to element.
func (f *Factory) On(element source.ElementID, args ...any) Diagnostic {
	msg := f.Template
	switch {
	case msg == "":
		msg = f.Code.Title()
	case len(args) > 0:
		msg = fmt.Sprintf(msg, args...)
	}
	return Diagnostic{
		Factory:  f,
		Severity: f.Severity,
		Code:     f.Code,
		Element:  element,
		Message:  msg,
		Args:     args,
	}
}

func (f *Factory) String() string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}

// Factories of the fact store itself.
var (
	RewriteViolation = NewFactory("REWRITE_VIOLATION", SevError, FctRewriteViolation, "fact %s rejected, it already holds %v")
	WriteAfterFreeze = NewFactory("WRITE_AFTER_FREEZE", SevError, FctWriteAfterFreeze, "write to frozen trace: %s")
	Unresolved       = NewFactory("UNRESOLVED_REFERENCE", SevError, ResUnresolvedReference, "unresolved reference: %s")
)
