package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildBinary compiles one of the commands into a temp dir.
func buildBinary(t *testing.T, name string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not on PATH")
	}

	out := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", out, "./cmd/"+name)
	cmd.Dir = getProjectRoot()
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", output)
	return out
}

func getProjectRoot() string {
	// Walk up until we find go.mod
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}
