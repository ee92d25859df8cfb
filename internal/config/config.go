package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"corecheck/internal/trace"
	"corecheck/internal/types"
)

// FileName is the manifest looked up next to analysed units.
const FileName = "corecheck.toml"

// Analysis holds the [analysis] section.
type Analysis struct {
	MaxDiagnostics int    `toml:"max_diagnostics"`
	MoveThreshold  uint64 `toml:"move_threshold"`
	TraceLevel     string `toml:"trace_level"`
	Jobs           int    `toml:"jobs"` // 0 = GOMAXPROCS
}

// Output holds the [output] section.
type Output struct {
	Color  string `toml:"color"`  // auto|on|off
	Format string `toml:"format"` // pretty|short|json
}

// Config is the decoded corecheck.toml.
type Config struct {
	Analysis Analysis `toml:"analysis"`
	Output   Output   `toml:"output"`
	// Path is where the config came from; empty for defaults.
	Path string `toml:"-"`
}

var (
	// ErrBadFormat reports an unknown [output].format value.
	ErrBadFormat = errors.New("unknown output format")
	// ErrBadColor reports an unknown [output].color value.
	ErrBadColor = errors.New("unknown color mode")
)

// Default returns the configuration used when no manifest exists.
func Default() Config {
	return Config{
		Analysis: Analysis{
			MaxDiagnostics: 100,
			MoveThreshold:  types.DefaultMoveThreshold,
			TraceLevel:     "off",
		},
		Output: Output{
			Color:  "auto",
			Format: "pretty",
		},
	}
}

// Find walks up from startDir looking for corecheck.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path on top of the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest corecheck.toml above startDir, or the
// defaults when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks enumerated values and ranges.
func (c Config) Validate() error {
	switch c.Output.Format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("%w %q (expected pretty|short|json)", ErrBadFormat, c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("%w %q (expected auto|on|off)", ErrBadColor, c.Output.Color)
	}
	if _, err := trace.ParseLevel(c.Analysis.TraceLevel); err != nil {
		return err
	}
	if c.Analysis.Jobs < 0 {
		return fmt.Errorf("[analysis].jobs must not be negative, got %d", c.Analysis.Jobs)
	}
	if c.Analysis.MaxDiagnostics < 0 {
		return fmt.Errorf("[analysis].max_diagnostics must not be negative, got %d", c.Analysis.MaxDiagnostics)
	}
	return nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
