package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"factdb/internal/diag"
	"factdb/internal/dump"
	"factdb/internal/script"
	"factdb/internal/testkit"
	"factdb/internal/trace"
)

var (
	runJobs  int
	runDump  bool
	runNotes bool
	runCheck bool
)

func init() {
	runCmd.Flags().IntVarP(&runJobs, "jobs", "j", 0, "scripts to run in parallel (0 = GOMAXPROCS)")
	runCmd.Flags().BoolVar(&runDump, "dump", false, "print the facts each script leaves behind")
	runCmd.Flags().BoolVar(&runNotes, "notes", false, "include diagnostic notes")
	runCmd.Flags().BoolVar(&runCheck, "check", false, "verify store invariants after each script")
}

var errScriptsFailed = errors.New("some scripts failed")

var runCmd = &cobra.Command{
	Use:   "run <script.toml>...",
	Short: "Run fact scripts, each on its own trace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := sessionFrom(cmd.Context())
		span := trace.Begin(s.tracer, trace.ScopeSession, "run", 0).
			WithExtra("scripts", fmt.Sprint(len(args)))
		ctx := trace.WithSpan(cmd.Context(), span)

		results := make([]*script.Result, len(args))
		g, gctx := errgroup.WithContext(ctx)
		jobs := runJobs
		if jobs <= 0 {
			jobs = runtime.GOMAXPROCS(0)
		}
		g.SetLimit(jobs)
		for i, path := range args {
			g.Go(func() error {
				sc, err := script.Load(path)
				if err != nil {
					return err
				}
				res, err := script.Run(gctx, sc, s.traceOptions(sc.Name))
				if err != nil {
					return err
				}
				if runCheck {
					if err := testkit.CheckContextInvariants(res.Context(), res.Registry, res.Elements); err != nil {
						res.Failures = append(res.Failures, script.Failure{Index: -1, Msg: "invariant: " + err.Error()})
					}
				}
				results[i] = res
				return nil
			})
		}
		err := g.Wait()
		span.End("")
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		colored := useColor(cmd, os.Stdout)
		failed := 0
		for _, res := range results {
			if !res.OK() {
				failed++
			}
			if err := printResult(out, res, colored); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d: %w", failed, len(results), errScriptsFailed)
		}
		return nil
	},
}

func printResult(out io.Writer, res *script.Result, colored bool) error {
	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	if !colored {
		pass.DisableColor()
		fail.DisableColor()
	} else {
		pass.EnableColor()
		fail.EnableColor()
	}

	ctx := res.Context()
	status := pass.Sprint("PASS")
	if !res.OK() {
		status = fail.Sprint("FAIL")
	}
	fmt.Fprintf(out, "%s %s (%d facts, %d diagnostics)\n", status, res.Script.Name, res.Trace.Len(), ctx.Diagnostics().Len())
	for _, f := range res.Failures {
		fmt.Fprintf(out, "  %s\n", f)
	}
	if runDump {
		return dump.Text(out, ctx, dump.TextOptions{
			Color:    colored,
			Registry: res.Registry,
			Elements: res.Elements,
			Notes:    runNotes,
		})
	}
	if text := diag.FormatShort(res.Diagnostics().Items(), res.Elements, runNotes); text != "" {
		fmt.Fprintln(out, text)
	}
	return nil
}
