package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestGetTrimsAndDefaults(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})

	Version = "  "
	GitCommit = " abc123 "
	BuildDate = ""
	info := Get()
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}
	if info.GitCommit != "abc123" {
		t.Errorf("GitCommit = %q, want abc123", info.GitCommit)
	}
	if info.BuildDate != "" {
		t.Errorf("BuildDate = %q, want empty", info.BuildDate)
	}
}

func TestColoredWithoutColor(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	tests := []string{"1.2.3", "0.1.0-dev", "1.2.3+meta", "dev", "1.2"}
	for _, v := range tests {
		if got := Colored(v); got != v {
			t.Errorf("Colored(%q) = %q, want unchanged", v, got)
		}
	}
}

func TestColoredPaintsComponents(t *testing.T) {
	orig := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = orig })

	got := Colored("1.2.3-dev")
	if got == "1.2.3-dev" {
		t.Fatalf("expected escape sequences in %q", got)
	}
	want := majorColor.Sprint("1") + "." + minorColor.Sprint("2") + "." + patchColor.Sprint("3") + "-dev"
	if got != want {
		t.Errorf("Colored = %q, want %q", got, want)
	}
}
