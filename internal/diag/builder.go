package diag

import "factdb/internal/source"

func New(sev Severity, code Code, element source.ElementID, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Element:  element,
		Message:  msg,
	}
}

func NewError(code Code, element source.ElementID, msg string) Diagnostic {
	return New(SevError, code, element, msg)
}

func (d Diagnostic) WithNote(element source.ElementID, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Element: element, Msg: msg})
	return d
}
