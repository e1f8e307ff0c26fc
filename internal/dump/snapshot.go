package dump

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"factdb/internal/binding"
	"factdb/internal/slicedmap"
	"factdb/internal/source"
)

// Current schema version - increment when Snapshot format changes
const snapshotSchemaVersion uint16 = 1

// ErrSchema is returned for snapshots written by another schema version.
var ErrSchema = errors.New("snapshot schema mismatch")

// Snapshot is the on-disk form of a frozen binding context. Values are
// stored rendered; a snapshot is for inspection, not for resuming analysis.
type Snapshot struct {
	Schema      uint16
	Name        string
	Slices      []SliceInfo
	Facts       []Fact
	Diagnostics []Diagnostic
}

type SliceInfo struct {
	Name       string
	Policy     string
	Removable  bool
	Collective bool
}

type Fact struct {
	Slice string
	Key   string
	Value string
	Type  string // Go type of the value
}

type Diagnostic struct {
	Severity string
	Code     string
	Element  string
	Message  string
	Notes    []string
}

// NewSnapshot captures ctx. registry and elements may be nil.
func NewSnapshot(name string, ctx binding.Context, registry *slicedmap.Registry, elements *source.Elements) *Snapshot {
	s := &Snapshot{Schema: snapshotSchemaVersion, Name: name}
	if registry != nil {
		for _, h := range registry.Headers() {
			s.Slices = append(s.Slices, SliceInfo{
				Name:       h.Name(),
				Policy:     h.Policy().String(),
				Removable:  h.Removable(),
				Collective: h.Collective(),
			})
		}
	}
	ctx.Range(func(key slicedmap.Key, value any) bool {
		s.Facts = append(s.Facts, Fact{
			Slice: key.Slice().Name(),
			Key:   fmt.Sprint(key.Value()),
			Value: fmt.Sprint(value),
			Type:  fmt.Sprintf("%T", value),
		})
		return true
	})
	for _, d := range ctx.Diagnostics().Items() {
		out := Diagnostic{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Element:  elements.Describe(d.Element),
			Message:  d.Message,
		}
		for _, n := range d.Notes {
			out.Notes = append(out.Notes, elements.Describe(n.Element)+": "+n.Msg)
		}
		s.Diagnostics = append(s.Diagnostics, out)
	}
	return s
}

// WriteFile stores s at path, replacing any previous file atomically.
func WriteFile(path string, s *Snapshot) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	enc := msgpack.NewEncoder(f)
	if err = enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}

// ReadFile loads a snapshot written by WriteFile.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s Snapshot
	if err := msgpack.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("%s: decode snapshot: %w", path, err)
	}
	if s.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("%s: schema %d, want %d: %w", path, s.Schema, snapshotSchemaVersion, ErrSchema)
	}
	return &s, nil
}
