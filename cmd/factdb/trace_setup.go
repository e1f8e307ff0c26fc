package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"factdb/internal/config"
	"factdb/internal/trace"
)

// setupTracing merges the trace flags into the [trace] section of cfg and
// creates the tracer. The returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command, cfg config.Config) (trace.Tracer, func(), error) {
	flags := cmd.Root().PersistentFlags()

	if out, err := flags.GetString("trace"); err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	} else if out != "" {
		cfg.Trace.Output = out
		// --trace alone means "trace something"
		if cfg.Trace.Level == "" || cfg.Trace.Level == "off" {
			cfg.Trace.Level = "phase"
		}
	}
	if level, err := flags.GetString("trace-level"); err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	} else if level != "" {
		cfg.Trace.Level = level
	}
	if mode, err := flags.GetString("trace-mode"); err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	} else if mode != "" {
		cfg.Trace.Mode = mode
	}
	if size, err := flags.GetInt("trace-ring-size"); err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	} else if size > 0 {
		cfg.Trace.RingSize = size
	}

	tc, err := cfg.TracerConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace settings: %w", err)
	}
	if tc.Level == trace.LevelOff {
		return trace.Nop, func() {}, nil
	}

	tracer, err := trace.New(tc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	cleanup := func() {
		// ring-only tracers keep events in memory; print them on the way out
		if ring, ok := tracer.(*trace.RingTracer); ok {
			if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}
