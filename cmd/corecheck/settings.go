package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"corecheck/internal/config"
)

// settings are the effective options of one invocation: corecheck.toml
// overlaid with explicitly set flags.
type settings struct {
	cfg     config.Config
	color   bool
	timings bool
}

func loadSettings(cmd *cobra.Command, inputs []string) (*settings, error) {
	root := cmd.Root().PersistentFlags()
	cfgPath, err := root.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg config.Config
	switch {
	case cfgPath != "":
		cfg, err = config.Load(cfgPath)
	case len(inputs) > 0:
		cfg, err = config.Discover(filepath.Dir(inputs[0]))
	default:
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}

	if root.Changed("color") {
		if cfg.Output.Color, err = root.GetString("color"); err != nil {
			return nil, fmt.Errorf("failed to get color flag: %w", err)
		}
	}
	if root.Changed("trace-level") {
		if cfg.Analysis.TraceLevel, err = root.GetString("trace-level"); err != nil {
			return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
		}
	}
	flags := cmd.Flags()
	if flags.Lookup("format") != nil && flags.Changed("format") {
		if cfg.Output.Format, err = flags.GetString("format"); err != nil {
			return nil, fmt.Errorf("failed to get format flag: %w", err)
		}
	}
	if flags.Lookup("jobs") != nil && flags.Changed("jobs") {
		if cfg.Analysis.Jobs, err = flags.GetInt("jobs"); err != nil {
			return nil, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if flags.Lookup("max-diagnostics") != nil && flags.Changed("max-diagnostics") {
		if cfg.Analysis.MaxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
			return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &settings{cfg: cfg}
	if s.color, err = resolveColor(cfg.Output.Color); err != nil {
		return nil, err
	}
	if s.timings, err = root.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return s, nil
}
