package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"factdb/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "factdb",
	Short: "Binding trace fact store toolkit",
	Long:  `factdb runs fact scripts against the binding trace store and dumps what they leave behind`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupSession(cmd)
		if err != nil {
			return err
		}
		sessionCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if sessionCleanup != nil {
			sessionCleanup()
		}
	},
	SilenceUsage: true,
}

var sessionCleanup func()

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("config", "", "path to factdb.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().Bool("strict", false, "turn rewrite violations into errors")
	rootCmd.PersistentFlags().Bool("track", false, "log every fact write")
	rootCmd.PersistentFlags().Int("max-diagnostics", -1, "maximum number of diagnostics to collect per trace (0 = no limit, negative = config value)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (\"-\" for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 0, "ring buffer size for --trace-mode=ring")
}

// main executes the root command. Any error exits with status 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		if sessionCleanup != nil {
			sessionCleanup()
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves --color for output going to f.
func useColor(cmd *cobra.Command, f *os.File) bool {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(f))
}
