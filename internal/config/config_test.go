package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[analysis]\njobs = 3\n\n[output]\nformat = \"short\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Analysis.Jobs != 3 || cfg.Output.Format != "short" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	def := Default()
	if cfg.Analysis.MaxDiagnostics != def.Analysis.MaxDiagnostics || cfg.Output.Color != "auto" {
		t.Fatalf("absent keys must keep defaults: %+v", cfg)
	}
	if cfg.Path != path {
		t.Fatalf("path not recorded: %q", cfg.Path)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[output]\nformat = \"xml\"\n")
	if _, err := Load(path); !errors.Is(err, ErrBadFormat) {
		t.Fatalf("expected ErrBadFormat, got %v", err)
	}
	path = writeConfig(t, dir, "[output]\ncolor = \"sometimes\"\n")
	if _, err := Load(path); !errors.Is(err, ErrBadColor) {
		t.Fatalf("expected ErrBadColor, got %v", err)
	}
	path = writeConfig(t, dir, "[analysis]\ntrace_level = \"loud\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a trace level error")
	}
	path = writeConfig(t, dir, "[analysis]\nthreads = 2\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "analysis.threads") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[analysis]\nmax_diagnostics = 7\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Discover(nested)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if cfg.Analysis.MaxDiagnostics != 7 {
		t.Fatalf("expected the parent config, got %+v", cfg)
	}
}

func TestDiscoverWithoutFileGivesDefaults(t *testing.T) {
	if _, ok, err := Find(t.TempDir()); err != nil || ok {
		// a corecheck.toml above the temp dir would make this test meaningless
		t.Skip("a config file exists above the temp directory")
	}
	cfg, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if cfg.Output != Default().Output || cfg.Path != "" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestWriteRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Analysis.Jobs = 2
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	path := writeConfig(t, t.TempDir(), buf.String())
	back, err := Load(path)
	if err != nil {
		t.Fatalf("load written config: %v\n%s", err, buf.String())
	}
	if back.Analysis != cfg.Analysis || back.Output != cfg.Output {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, cfg)
	}
}
