package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"factdb/internal/binding"
	"factdb/internal/config"
	"factdb/internal/trace"
)

type sessionKey struct{}

// session is what every command needs: the effective config and the tracer.
type session struct {
	cfg    config.Config
	tracer trace.Tracer
}

func (s *session) traceOptions(name string) binding.Options {
	return s.cfg.TraceOptions(name, s.tracer)
}

func sessionFrom(ctx context.Context) *session {
	if s, ok := ctx.Value(sessionKey{}).(*session); ok {
		return s
	}
	return &session{cfg: config.Default(), tracer: trace.Nop}
}

// setupSession loads factdb.toml, applies flag overrides and starts tracing.
func setupSession(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}

	if flags.Changed("strict") {
		if cfg.Analysis.Strict, err = flags.GetBool("strict"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("track") {
		if cfg.Analysis.Track, err = flags.GetBool("track"); err != nil {
			return nil, err
		}
	}
	if n, err := flags.GetInt("max-diagnostics"); err != nil {
		return nil, err
	} else if n >= 0 {
		cfg.Analysis.MaxDiagnostics = n
	}

	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = trace.WithTracer(ctx, tracer)
	ctx = context.WithValue(ctx, sessionKey{}, &session{cfg: cfg, tracer: tracer})
	cmd.SetContext(ctx)
	return cleanup, nil
}
