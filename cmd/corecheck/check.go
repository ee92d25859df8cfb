package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"corecheck/internal/diagfmt"
	"corecheck/internal/driver"
	"corecheck/internal/observ"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <unit.ccu|directory>...",
	Short: "Check units for type, trait and ownership errors",
	Long:  `Check runs inference, trait conformance and ownership analysis on every given unit file or every *.ccu file under the given directories`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	checkCmd.Flags().Int("max-diagnostics", 100, "maximum number of diagnostics per unit")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Int8("context", 0, "lines of source context around pretty snippets")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

// runCheck expands the inputs, analyses all units in parallel and prints
// the findings in the chosen format. It returns errFindings when any unit
// reported an error.
func runCheck(cmd *cobra.Command, args []string) error {
	paths, err := driver.ExpandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no %s files found", driver.UnitExt)
	}
	st, err := loadSettings(cmd, paths)
	if err != nil {
		return err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	context, err := cmd.Flags().GetInt8("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	cleanup, err := setupTracing(cmd, st.cfg.Analysis.TraceLevel)
	if err != nil {
		return err
	}
	defer cleanup()

	timer := observ.NewTimer()
	results, err := driver.CheckFiles(cmd.Context(), paths, driver.Options{
		Jobs:           st.cfg.Analysis.Jobs,
		MaxDiagnostics: st.cfg.Analysis.MaxDiagnostics,
		MoveThreshold:  st.cfg.Analysis.MoveThreshold,
		Timer:          timer,
	})
	if err != nil {
		return err
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	out := cmd.OutOrStdout()
	if err := render(out, results, st.cfg.Output.Format, diagfmt.PrettyOpts{
		Color:     st.color,
		Context:   context,
		PathMode:  pathMode,
		ShowNotes: withNotes,
	}); err != nil {
		return err
	}
	if st.timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if driver.HasErrors(results) {
		return errFindings
	}
	return nil
}

func render(w io.Writer, results []*driver.Result, format string, pretty diagfmt.PrettyOpts) error {
	switch format {
	case "pretty":
		first := true
		for _, r := range results {
			if r.Bag.Len() == 0 && r.Bag.Dropped() == 0 {
				continue
			}
			if !first {
				fmt.Fprintln(w)
			}
			first = false
			diagfmt.Pretty(w, r.Bag, r.FileSet(), pretty)
		}
		return nil
	case "short":
		for _, r := range results {
			if err := diagfmt.Short(w, r.Bag, r.FileSet(), pretty.ShowNotes); err != nil {
				return err
			}
		}
		return nil
	case "json":
		for _, r := range results {
			if err := diagfmt.JSON(w, r.Path, r.Bag, r.FileSet(), diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         pretty.PathMode,
				IncludeNotes:     pretty.ShowNotes,
			}); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q (must be pretty, short or json)", format)
}
