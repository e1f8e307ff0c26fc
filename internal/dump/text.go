// Package dump renders a binding context for people and stores snapshots of
// it on disk.
package dump

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"factdb/internal/binding"
	"factdb/internal/diag"
	"factdb/internal/slicedmap"
	"factdb/internal/source"
)

// TextOptions control Text.
type TextOptions struct {
	Color bool
	// Registry adds a per-slice summary; may be nil.
	Registry *slicedmap.Registry
	// Elements resolves diagnostic anchors; may be nil.
	Elements *source.Elements
	// Notes includes diagnostic notes.
	Notes bool
}

type row struct {
	slice, key, value string
}

func painter(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Text writes the facts of ctx in insertion order as an aligned table,
// followed by the slice summary and the diagnostics.
func Text(w io.Writer, ctx binding.Context, opts TextOptions) error {
	out := bufio.NewWriter(w)
	sliceColor := painter(opts.Color, color.FgCyan)
	headColor := painter(opts.Color, color.Bold)
	errColor := painter(opts.Color, color.FgRed)

	var rows []row
	counts := make(map[*slicedmap.Header]int)
	ctx.Range(func(key slicedmap.Key, value any) bool {
		rows = append(rows, row{
			slice: key.Slice().Name(),
			key:   fmt.Sprint(key.Value()),
			value: fmt.Sprint(value),
		})
		counts[key.Slice()]++
		return true
	})

	sliceWidth, keyWidth := 0, 0
	for _, r := range rows {
		sliceWidth = max(sliceWidth, runewidth.StringWidth(r.slice))
		keyWidth = max(keyWidth, runewidth.StringWidth(r.key))
	}

	if _, err := headColor.Fprintf(out, "facts (%d)\n", len(rows)); err != nil {
		return err
	}
	for _, r := range rows {
		line := fmt.Sprintf("  %s  %s  %s\n",
			sliceColor.Sprint(runewidth.FillRight(r.slice, sliceWidth)),
			runewidth.FillRight(r.key, keyWidth),
			r.value)
		if _, err := out.WriteString(line); err != nil {
			return err
		}
	}

	if opts.Registry != nil && opts.Registry.Len() > 0 {
		headers := opts.Registry.Headers()
		nameWidth := 0
		for _, h := range headers {
			nameWidth = max(nameWidth, runewidth.StringWidth(h.Name()))
		}
		if _, err := headColor.Fprintf(out, "slices (%d)\n", len(headers)); err != nil {
			return err
		}
		for _, h := range headers {
			line := fmt.Sprintf("  %s  %-22s %d\n",
				sliceColor.Sprint(runewidth.FillRight(h.Name(), nameWidth)),
				h.Policy(), counts[h])
			if _, err := out.WriteString(line); err != nil {
				return err
			}
		}
	}

	diags := ctx.Diagnostics()
	if _, err := headColor.Fprintf(out, "diagnostics (%d)\n", diags.Len()); err != nil {
		return err
	}
	if text := diag.FormatShort(diags.Items(), opts.Elements, opts.Notes); text != "" {
		for _, line := range strings.Split(text, "\n") {
			paint := fmt.Sprint
			if strings.HasPrefix(line, "error") {
				paint = errColor.Sprint
			}
			if _, err := fmt.Fprintf(out, "  %s\n", paint(line)); err != nil {
				return err
			}
		}
	}
	return out.Flush()
}

// SnapshotText prints a snapshot read back from disk.
func SnapshotText(w io.Writer, s *Snapshot) error {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "snapshot %s (schema %d)\n", s.Name, s.Schema)

	sliceWidth, keyWidth := 0, 0
	for _, f := range s.Facts {
		sliceWidth = max(sliceWidth, runewidth.StringWidth(f.Slice))
		keyWidth = max(keyWidth, runewidth.StringWidth(f.Key))
	}
	fmt.Fprintf(out, "facts (%d)\n", len(s.Facts))
	for _, f := range s.Facts {
		fmt.Fprintf(out, "  %s  %s  %s (%s)\n",
			runewidth.FillRight(f.Slice, sliceWidth),
			runewidth.FillRight(f.Key, keyWidth),
			f.Value, f.Type)
	}
	fmt.Fprintf(out, "slices (%d)\n", len(s.Slices))
	for _, sl := range s.Slices {
		fmt.Fprintf(out, "  %s %s\n", sl.Name, sl.Policy)
	}
	fmt.Fprintf(out, "diagnostics (%d)\n", len(s.Diagnostics))
	for _, d := range s.Diagnostics {
		fmt.Fprintf(out, "  %s %s %s %s\n", strings.ToLower(d.Severity), d.Code, d.Element, d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(out, "    note: %s\n", n)
		}
	}
	return out.Flush()
}
