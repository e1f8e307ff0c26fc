// Package script runs fact scripts: small TOML files that declare slices
// and elements and drive a binding trace through a list of operations,
// checking expectations along the way. The CLI and the tests use them to
// exercise the fact store without a resolver.
package script

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
)

// Op kinds.
const (
	OpRecord   = "record"
	OpGet      = "get"
	OpContains = "contains"
	OpRemove   = "remove"
	OpReport   = "report"
	OpFreeze   = "freeze"
)

// Script is a decoded fact script.
type Script struct {
	Name     string        `toml:"name"`
	Slices   []SliceDecl   `toml:"slice"`
	Elements []ElementDecl `toml:"element"`
	Ops      []Op          `toml:"op"`
}

// SliceDecl declares a slice with string keys and scalar values.
type SliceDecl struct {
	Name       string   `toml:"name"`
	Policy     string   `toml:"policy"`
	Further    []string `toml:"further"`
	Default    any      `toml:"default"`
	Removable  bool     `toml:"removable"`
	Collective bool     `toml:"collective"`
	Flag       bool     `toml:"flag"`
}

// ElementDecl declares a diagnostic anchor.
type ElementDecl struct {
	Name string `toml:"name"`
	File string `toml:"file"`
	Line uint32 `toml:"line"`
	Col  uint32 `toml:"col"`
}

// Op is one step of a script.
type Op struct {
	Kind  string `toml:"kind"`
	Slice string `toml:"slice"`
	Key   string `toml:"key"`
	Value any    `toml:"value"`
	// Expect is compared with the result of get, contains and remove.
	Expect any `toml:"expect"`
	// Absent expects get to find nothing.
	Absent bool `toml:"absent"`
	// Fails expects the operation to return an error.
	Fails bool `toml:"fails"`

	// Element anchors reports, and the store diagnostics of rejected writes.
	Element  string `toml:"element"`
	Severity string `toml:"severity"`
	Code     string `toml:"code"`
	Message  string `toml:"message"`
}

func (op Op) String() string {
	if op.Slice == "" {
		return op.Kind
	}
	return fmt.Sprintf("%s %s[%s]", op.Kind, op.Slice, op.Key)
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes a script. Names and keys are NFC-normalized.
func Parse(name string, data []byte) (*Script, error) {
	var s Script
	meta, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", name, undecoded[0])
	}
	if s.Name == "" {
		s.Name = name
	}
	s.normalize()
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &s, nil
}

func nfc(s string) string { return norm.NFC.String(strings.TrimSpace(s)) }

func (s *Script) normalize() {
	for i := range s.Slices {
		d := &s.Slices[i]
		d.Name = nfc(d.Name)
		for j := range d.Further {
			d.Further[j] = nfc(d.Further[j])
		}
		if str, ok := d.Default.(string); ok {
			d.Default = norm.NFC.String(str)
		}
	}
	for i := range s.Elements {
		s.Elements[i].Name = nfc(s.Elements[i].Name)
	}
	for i := range s.Ops {
		op := &s.Ops[i]
		op.Kind = strings.ToLower(strings.TrimSpace(op.Kind))
		op.Slice = nfc(op.Slice)
		op.Key = norm.NFC.String(op.Key)
		op.Element = nfc(op.Element)
		if str, ok := op.Value.(string); ok {
			op.Value = norm.NFC.String(str)
		}
		if str, ok := op.Expect.(string); ok {
			op.Expect = norm.NFC.String(str)
		}
	}
}

func (s *Script) validate() error {
	slices := make(map[string]SliceDecl, len(s.Slices))
	for i, d := range s.Slices {
		if d.Name == "" {
			return fmt.Errorf("slice #%d: missing name", i+1)
		}
		if _, dup := slices[d.Name]; dup {
			return fmt.Errorf("slice %q declared twice", d.Name)
		}
		if d.Flag && d.Default != nil {
			return fmt.Errorf("slice %q: flag slices have no default", d.Name)
		}
		slices[d.Name] = d
	}
	elements := make(map[string]bool, len(s.Elements))
	for i, e := range s.Elements {
		if e.Name == "" {
			return fmt.Errorf("element #%d: missing name", i+1)
		}
		elements[e.Name] = true
	}
	for i, op := range s.Ops {
		where := fmt.Sprintf("op #%d (%s)", i+1, op.Kind)
		if op.Element != "" && !elements[op.Element] {
			return fmt.Errorf("%s: unknown element %q", where, op.Element)
		}
		switch op.Kind {
		case OpRecord, OpGet, OpContains, OpRemove:
			d, ok := slices[op.Slice]
			if !ok {
				return fmt.Errorf("%s: unknown slice %q", where, op.Slice)
			}
			if op.Kind == OpRemove && !d.Removable {
				return fmt.Errorf("%s: slice %q is not removable", where, op.Slice)
			}
			if op.Kind == OpRecord && op.Value == nil && !d.Flag {
				return fmt.Errorf("%s: missing value", where)
			}
		case OpReport:
			if op.Message == "" && op.Code == "" {
				return fmt.Errorf("%s: report needs a code or a message", where)
			}
		case OpFreeze:
		default:
			return fmt.Errorf("%s: unknown op kind (expected: record|get|contains|remove|report|freeze)", where)
		}
	}
	return nil
}
