package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"corecheck/internal/diagfmt"
	"corecheck/internal/driver"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [flags] <unit.ccu>",
	Short: "Check a unit and write its typed program for later phases",
	Long:  `Snapshot checks one unit and encodes expression types, binding types, generic call arguments and the ownership event log with msgpack`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringP("output", "o", "", "output path (default: <unit>.snap, - for stdout)")
	snapshotCmd.Flags().Bool("force", false, "write the snapshot even when errors were reported")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	path := args[0]
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}
	if output == "" {
		output = strings.TrimSuffix(path, driver.UnitExt) + ".snap"
	}
	st, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, st.cfg.Analysis.TraceLevel)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := driver.CheckFiles(cmd.Context(), []string{path}, driver.Options{
		Jobs:           1,
		MaxDiagnostics: st.cfg.Analysis.MaxDiagnostics,
		MoveThreshold:  st.cfg.Analysis.MoveThreshold,
	})
	if err != nil {
		return err
	}
	res := results[0]
	if res.Bag.Len() > 0 {
		diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet(), diagfmt.PrettyOpts{Color: st.color})
	}
	if res.Program == nil || (res.Bag.HasErrors() && !force) {
		return errFindings
	}

	if output == "-" {
		return driver.WriteSnapshot(cmd.OutOrStdout(), path, res.Program)
	}
	// #nosec G304 -- output path comes from the command line
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	w := bufio.NewWriter(f)
	if err := driver.WriteSnapshot(w, path, res.Program); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", output, err)
	}
	return f.Close()
}
