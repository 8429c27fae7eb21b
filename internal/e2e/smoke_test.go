package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	stdout, stderr, err := runRT(t, binaryPath, home, "session", "list")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Max, Male (example_session_max)")

	outDir := t.TempDir()
	stdout, stderr, err = runRT(t, binaryPath, home, "export", "session", "example_session_max", "--out", outDir)
	require.NoError(t, err, "stderr: %s", stderr)

	data, err := os.ReadFile(strings.TrimSpace(stdout))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "SessionID,UserName,UserSex,"))
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "rt-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/rt")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build rt binary: %s", string(output))
	return binaryPath
}

func runRT(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
