package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColoredWithoutColorMatchesVersion(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	for _, v := range []string{"0.1.0-dev", "1.2.3", "1.0.0-rc.1", "weird"} {
		orig := Version
		Version = v
		if got := Colored(); got != v {
			t.Errorf("Colored() = %q, want %q", got, v)
		}
		Version = orig
	}
}

func TestShortAbbreviatesCommit(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "1.2.3"
	GitCommit = ""
	if got := Short(); got != "1.2.3" {
		t.Errorf("Short() = %q without commit", got)
	}
	GitCommit = "1234567890abcdef1234567890abcdef12345678"
	if got := Short(); got != "1.2.3 (1234567890ab)" {
		t.Errorf("Short() = %q", got)
	}
}
