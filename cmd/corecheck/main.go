package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"corecheck/internal/version"
)

// errFindings signals that analysis succeeded but reported errors.
var errFindings = errors.New("errors reported")

var rootCmd = &cobra.Command{
	Use:           "corecheck",
	Short:         "Static type, trait and ownership checker for resolved units",
	Long:          `corecheck runs type inference, trait conformance and ownership analysis over units produced by a front end`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: startProfiling,
}

// main registers subcommands and persistent flags and executes the root
// command. Exit status is 1 on findings and 2 on usage or I/O failures.
func main() {
	rootCmd.Version = version.Short()

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("config", "", "path to corecheck.toml (default: nearest one above the first input)")
	rootCmd.PersistentFlags().String("color", "", "colorize output (auto|on|off), overrides [output].color")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "", "trace level (off|error|phase|detail|debug), overrides [analysis].trace_level")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write Go runtime trace to file")

	err := rootCmd.Execute()
	stopProfiling()
	if err != nil {
		if errors.Is(err, errFindings) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "corecheck: %v\n", err)
		os.Exit(2)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- fd fits int
}

// resolveColor applies auto|on|off and returns whether stdout gets colour.
func resolveColor(mode string) (bool, error) {
	var on bool
	switch mode {
	case "", "auto":
		on = isTerminal(os.Stdout)
	case "on":
		on = true
	case "off":
		on = false
	default:
		return false, fmt.Errorf("invalid color mode %q (expected auto|on|off)", mode)
	}
	color.NoColor = !on
	return on, nil
}
