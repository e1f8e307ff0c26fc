// Package config loads factdb.toml, the per-project analysis settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"factdb/internal/binding"
	"factdb/internal/trace"
)

// FileName is the name searched for from the working directory upwards.
const FileName = "factdb.toml"

// Config mirrors factdb.toml.
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Trace    TraceConfig    `toml:"trace"`

	// Path is the file the config came from; empty for defaults.
	Path string `toml:"-"`
}

type AnalysisConfig struct {
	Strict         bool `toml:"strict"`
	Track          bool `toml:"track"`
	CaptureStacks  bool `toml:"capture_stacks"`
	Synchronized   bool `toml:"synchronized"`
	MaxDiagnostics int  `toml:"max_diagnostics"`
}

type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	RingSize int    `toml:"ring_size"`
}

// Default is used when no factdb.toml exists.
func Default() Config {
	return Config{
		// max_diagnostics 0: collect everything unless capped explicitly
		Analysis: AnalysisConfig{},
		Trace: TraceConfig{
			Level:    "off",
			Mode:     "stream",
			Output:   "-",
			RingSize: trace.DefaultRingSize,
		},
	}
}

// Find walks up from startDir looking for factdb.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest factdb.toml or returns Default.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads one file. Unset keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if meta.IsDefined("analysis", "max_diagnostics") && cfg.Analysis.MaxDiagnostics < 0 {
		return Config{}, fmt.Errorf("%s: [analysis].max_diagnostics must not be negative", path)
	}
	if meta.IsDefined("trace", "ring_size") && cfg.Trace.RingSize <= 0 {
		return Config{}, fmt.Errorf("%s: [trace].ring_size must be positive", path)
	}
	if _, err := trace.ParseLevel(cfg.Trace.Level); err != nil {
		return Config{}, fmt.Errorf("%s: [trace].level: %w", path, err)
	}
	if _, err := trace.ParseMode(cfg.Trace.Mode); err != nil {
		return Config{}, fmt.Errorf("%s: [trace].mode: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// TracerConfig converts the [trace] section for trace.New.
func (c Config) TracerConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
	}, nil
}

// TraceOptions converts the [analysis] section for binding.NewTrace.
func (c Config) TraceOptions(name string, tracer trace.Tracer) binding.Options {
	return binding.Options{
		Name:           name,
		Strict:         c.Analysis.Strict,
		Track:          c.Analysis.Track,
		CaptureStacks:  c.Analysis.CaptureStacks,
		Synchronized:   c.Analysis.Synchronized,
		MaxDiagnostics: c.Analysis.MaxDiagnostics,
		Tracer:         tracer,
	}
}
