package main

import (
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"

	"github.com/deemkeen/deckhand/util"
)

const runMainEnv = "DECKHAND_TEST_RUN_MAIN"

// TestMain lets a test re-exec this binary as the real program.
func TestMain(m *testing.M) {
	if os.Getenv(runMainEnv) == "1" {
		os.Args = append([]string{util.Name}, strings.Fields(os.Getenv("DECKHAND_TEST_ARGS"))...)
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

var semver = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

func TestVersionLine(t *testing.T) {
	got := versionLine()
	if got != util.Name+" v"+util.GetVersion() {
		t.Errorf("versionLine() = %q", got)
	}
	if !semver.MatchString(util.GetVersion()) {
		t.Errorf("Version %q is not X.Y.Z", util.GetVersion())
	}
}

func TestVersionFlag(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	cmd.Env = append(os.Environ(), runMainEnv+"=1", "DECKHAND_TEST_ARGS=-v")

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("-v exited with %v: %s", err, out)
	}
	if got := strings.TrimSpace(string(out)); got != versionLine() {
		t.Errorf("-v printed %q, want %q", got, versionLine())
	}
}
