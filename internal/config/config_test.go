package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"factdb/internal/binding"
	"factdb/internal/diag"
	"factdb/internal/trace"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "[analysis]\nstrict = true\ntrack = true\n\n[trace]\nlevel = \"detail\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if cfg.Path != path {
		t.Fatalf("path = %q, want %q", cfg.Path, path)
	}
	if !cfg.Analysis.Strict || !cfg.Analysis.Track {
		t.Fatalf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Analysis.MaxDiagnostics != 0 || cfg.Trace.RingSize != trace.DefaultRingSize {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	tc, err := cfg.TracerConfig()
	if err != nil || tc.Level != trace.LevelDetail || tc.Mode != trace.ModeStream {
		t.Fatalf("tracer config = %+v, %v", tc, err)
	}
	opts := cfg.TraceOptions("session", trace.Nop)
	if !opts.Strict || opts.Name != "session" {
		t.Fatalf("trace options = %+v", opts)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"[analysis]\nmax_diagnostics = -1\n", "max_diagnostics"},
		{"[trace]\nring_size = 0\n", "ring_size"},
		{"[trace]\nlevel = \"loud\"\n", "[trace].level"},
		{"[trace]\nmode = \"tape\"\n", "[trace].mode"},
		{"[analysis]\nstrikt = true\n", "unknown key"},
		{"[analysis\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		path := writeConfig(t, t.TempDir(), tt.body)
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("body %q: err = %v, want %q", tt.body, err, tt.want)
		}
	}
}

func TestDiagnosticLimitIsOptIn(t *testing.T) {
	report := func(cfg Config, n int) *binding.SimpleTrace {
		tr := binding.NewTrace(cfg.TraceOptions("limits", trace.Nop))
		for i := 0; i < n; i++ {
			tr.Report(diag.Unresolved.On(0, "x"))
		}
		return tr
	}

	tr := report(Default(), 1500)
	if tr.Diagnostics().Len() != 1500 || tr.Dropped() != 0 {
		t.Fatalf("default config kept %d, dropped %d", tr.Diagnostics().Len(), tr.Dropped())
	}

	cfg, err := Load(writeConfig(t, t.TempDir(), "[analysis]\nmax_diagnostics = 2\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tr = report(cfg, 5)
	if tr.Diagnostics().Len() != 2 || tr.Dropped() != 3 {
		t.Fatalf("capped config kept %d, dropped %d", tr.Diagnostics().Len(), tr.Dropped())
	}
}
