package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"factdb/internal/dump"
	"factdb/internal/script"
)

var dumpOut string

func init() {
	dumpCmd.Flags().StringVarP(&dumpOut, "out", "o", "", "also write a msgpack snapshot to this file")
}

var dumpCmd = &cobra.Command{
	Use:   "dump <script.toml | snapshot.mp>",
	Short: "Run a script and print its facts, or print a saved snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if strings.HasSuffix(args[0], ".mp") {
			snap, err := dump.ReadFile(args[0])
			if err != nil {
				return err
			}
			return dump.SnapshotText(out, snap)
		}

		s := sessionFrom(cmd.Context())
		sc, err := script.Load(args[0])
		if err != nil {
			return err
		}
		res, err := script.Run(cmd.Context(), sc, s.traceOptions(sc.Name))
		if err != nil {
			return err
		}
		ctx := res.Trace.Freeze()
		if err := dump.Text(out, ctx, dump.TextOptions{
			Color:    useColor(cmd, os.Stdout),
			Registry: res.Registry,
			Elements: res.Elements,
			Notes:    true,
		}); err != nil {
			return err
		}
		if dumpOut != "" {
			if err := dump.WriteFile(dumpOut, dump.NewSnapshot(sc.Name, ctx, res.Registry, res.Elements)); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "snapshot written to %s\n", dumpOut)
		}
		return nil
	},
}
