package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"corecheck/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a corecheck.toml with default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return fmt.Errorf("failed to get force flag: %w", err)
		}
		if _, err := os.Stat(config.FileName); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		f, err := os.Create(config.FileName)
		if err != nil {
			return fmt.Errorf("create %s: %w", config.FileName, err)
		}
		if err := config.Default().Write(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", config.FileName, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", config.FileName)
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing corecheck.toml")
}
