package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"module-tool/tests/testutil"
)

func runMMT(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command("go", append([]string{"run", "./cmd/mmt"}, args...)...)
	cmd.Dir = testutil.RepoRoot(t)
	cmd.Env = append(os.Environ(), "GO111MODULE=on")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInstallListUninstallE2E(t *testing.T) {
	dir := t.TempDir()
	war := testutil.Container(t, filepath.Join(dir, "app.war"), "4.2.0", "Enterprise", nil)
	amp := testutil.WriteZip(t, filepath.Join(dir, "sample.amp"), map[string]string{
		"module.properties":       testutil.Descriptor("org.sample", "1.0"),
		"config/sample/hello.txt": "hello",
	})
	original := testutil.ReadZip(t, war)

	out, err := runMMT(t, "install", amp, war, "-nobackup")
	require.NoError(t, err, out)
	assert.Equal(t, "hello", testutil.ReadZip(t, war)["WEB-INF/classes/sample/hello.txt"])

	out, err = runMMT(t, "list", war)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Module 'org.sample' installed in '")
	assert.Contains(t, out, "Version:      1.0.0")

	out, err = runMMT(t, "uninstall", "org.sample", war)
	require.NoError(t, err, out)
	assert.Equal(t, original, testutil.ReadZip(t, war))
}

func TestUsageErrorE2E(t *testing.T) {
	out, err := runMMT(t)
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, out, "Usage error: no command given")
}
