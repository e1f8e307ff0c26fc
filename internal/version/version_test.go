package version

import (
	"strings"
	"testing"
)

func TestColoredPlain(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3-rc.1"
	if got := Colored(false); got != "1.2.3-rc.1" {
		t.Errorf("Colored(false) = %q", got)
	}
	colored := Colored(true)
	if !strings.Contains(colored, "\x1b[") || !strings.HasSuffix(colored, "-rc.1") {
		t.Errorf("Colored(true) = %q", colored)
	}
}

func TestLine(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	Version, GitCommit, BuildDate = "0.1.0", "", ""
	if got := Line(false); got != "factdb 0.1.0" {
		t.Errorf("Line = %q", got)
	}
	GitCommit, BuildDate = "abc123", "2024-01-15"
	if got := Line(false); got != "factdb 0.1.0 (abc123) built 2024-01-15" {
		t.Errorf("Line = %q", got)
	}
}
