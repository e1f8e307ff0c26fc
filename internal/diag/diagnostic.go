package diag

import "factdb/internal/source"

type Note struct {
	Element source.ElementID
	Msg     string
}

type Diagnostic struct {
	Factory  *Factory // nil for ad-hoc diagnostics
	Severity Severity
	Code     Code
	Element  source.ElementID
	Message  string
	Args     []any
	Notes    []Note
}
