package diag

import (
	"fmt"
	"sort"
	"strings"

	"factdb/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Where    string
	Element  source.ElementID
	Message  string
}

// FormatShort renders diagnostics into a stable, single-line-per-entry
// representation: "severity CODE where message". Entries are sorted by
// element, then severity, code and message. Notes follow as "note" lines
// when includeNotes is set. elements may be nil.
func FormatShort(diags []Diagnostic, elements *source.Elements, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([]shortDiagnostic, 0, len(diags))
	for _, d := range diags {
		rendered = append(rendered, shortDiagnostic{
			Severity: severityLabel(d.Severity),
			Code:     d.Code.ID(),
			Where:    elements.Describe(d.Element),
			Element:  d.Element,
			Message:  sanitizeMessage(d.Message),
		})
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			rendered = append(rendered, shortDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Where:    elements.Describe(note.Element),
				Element:  note.Element,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Element != dj.Element {
			return di.Element < dj.Element
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s %s", d.Severity, d.Code, d.Where, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
