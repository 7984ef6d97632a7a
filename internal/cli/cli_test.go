package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"module-tool/tests/testutil"
)

func runForTest(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Cleanup(viper.Reset)
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// ---------- Command tree tests ----------

func TestRootCommandHasSubcommands(t *testing.T) {
	t.Cleanup(viper.Reset)
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, name := range []string{"install", "uninstall", "list"} {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandVersion(t *testing.T) {
	t.Cleanup(viper.Reset)
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
}

func TestInstallCommandFlags(t *testing.T) {
	t.Cleanup(viper.Reset)
	cmd := newInstallCommand()
	for _, name := range []string{"verbose", "force", "preview", "nobackup", "directory", "file-mapping"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestUninstallCommandFlags(t *testing.T) {
	t.Cleanup(viper.Reset)
	cmd := newUninstallCommand()
	assert.NotNil(t, cmd.Flags().Lookup("purge"))
	assert.NotNil(t, cmd.Flags().Lookup("preview"))
}

// ---------- Argument handling ----------

func TestNormalizeLegacyArgs(t *testing.T) {
	got := normalizeLegacyArgs([]string{"install", "-force", "--preview", "-h", "a.amp", "-nobackup", "-"})
	assert.Equal(t, []string{"install", "--force", "--preview", "-h", "a.amp", "--nobackup", "-"}, got)
}

func TestRunWithoutArgumentsPrintsUsage(t *testing.T) {
	code, _, stderr := runForTest(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Usage error: no command given")
	assert.Contains(t, stderr, "mmt [command]")
}

func TestRunUnknownCommand(t *testing.T) {
	code, _, stderr := runForTest(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Usage error: unknown command")
}

func TestRunWrongArgumentCount(t *testing.T) {
	code, _, stderr := runForTest(t, "install", "only-one.amp")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Usage error: install expects 2 arguments (package, container), got 1")
}

func TestRunUnknownFlag(t *testing.T) {
	code, _, stderr := runForTest(t, "list", "-bogus", "x.war")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Usage error: unknown flag: --bogus")
}

func TestRunHelpIsNotAnError(t *testing.T) {
	code, stdout, _ := runForTest(t, "-help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "install")
}

// ---------- Commands end to end ----------

func TestRunListEmptyContainer(t *testing.T) {
	war := testutil.Container(t, filepath.Join(t.TempDir(), "app.war"), "4.2.0", "Enterprise", nil)
	code, stdout, stderr := runForTest(t, "list", war)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "No modules are installed in this WAR file")
}

func TestRunInstallListUninstall(t *testing.T) {
	dir := t.TempDir()
	war := testutil.Container(t, filepath.Join(dir, "app.war"), "4.2.0", "Enterprise", nil)
	amp := testutil.WriteZip(t, filepath.Join(dir, "sample.amp"), map[string]string{
		"module.properties":       testutil.Descriptor("org.sample", "1.0.0"),
		"config/sample/hello.txt": "hello\n",
	})

	code, _, stderr := runForTest(t, "install", amp, war, "-nobackup")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, testutil.ReadZip(t, war), "WEB-INF/classes/sample/hello.txt")

	code, stdout, stderr := runForTest(t, "list", war)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Module 'org.sample' installed in '"+filepath.ToSlash(war)+"'")
	assert.Contains(t, stdout, "Version:      1.0.0")

	code, _, stderr = runForTest(t, "uninstall", "org.sample", war)
	require.Equal(t, 0, code, stderr)
	assert.NotContains(t, testutil.ReadZip(t, war), "WEB-INF/classes/sample/hello.txt")
}

func TestRunInstallMissingContainerFails(t *testing.T) {
	dir := t.TempDir()
	amp := testutil.WriteZip(t, filepath.Join(dir, "sample.amp"), map[string]string{
		"module.properties": testutil.Descriptor("org.sample", "1.0.0"),
	})
	code, _, stderr := runForTest(t, "install", amp, filepath.Join(dir, "missing.war"), "--nobackup")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: ")
	assert.Contains(t, stderr, "missing.war does not exist")
}

func TestRunInstallPreviewBindsViperKey(t *testing.T) {
	dir := t.TempDir()
	war := testutil.Container(t, filepath.Join(dir, "app.war"), "4.2.0", "Enterprise", nil)
	amp := testutil.WriteZip(t, filepath.Join(dir, "sample.amp"), map[string]string{
		"module.properties":       testutil.Descriptor("org.sample", "1.0.0"),
		"config/sample/hello.txt": "hello\n",
	})
	before, err := os.ReadFile(war)
	require.NoError(t, err)

	code, _, stderr := runForTest(t, "install", amp, war, "--preview", "--nobackup")
	require.Equal(t, 0, code, stderr)
	assert.True(t, viper.GetBool("preview"), "preview key must follow the install flag")

	after, err := os.ReadFile(war)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(before, after))
}

// ---------- Helper function tests ----------

func TestResolveString(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *cobra.Command
		value    string
		expected string
	}{
		{
			name:     "nil cmd with value returns value",
			cmd:      nil,
			value:    "explicit",
			expected: "explicit",
		},
		{
			name:     "nil cmd empty value returns empty",
			cmd:      nil,
			value:    "",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveString(tt.cmd, tt.value, "test_key", "test-flag")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveBool(t *testing.T) {
	got := resolveBool(nil, true, "test_key", "test-flag")
	assert.True(t, got)

	got = resolveBool(nil, false, "test_key", "test-flag")
	assert.False(t, got)
}

func TestResolveBoolFallsBackToConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("force", true)
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("force", false, "test flag")
	assert.True(t, resolveBool(cmd, false, "force", "force"))

	require.NoError(t, cmd.Flags().Set("force", "false"))
	assert.False(t, resolveBool(cmd, false, "force", "force"))
}

func TestFlagChanged(t *testing.T) {
	assert.False(t, flagChanged(nil, "anything"), "nil cmd should return false")
	assert.False(t, flagChanged(nil, ""), "nil cmd with empty name")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	assert.False(t, flagChanged(cmd, "myflag"), "unchanged flag")
	assert.False(t, flagChanged(cmd, "nonexistent"), "nonexistent flag")
}

func TestFlagChangedAfterSet(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	require.NoError(t, cmd.Flags().Set("myflag", "val"))
	assert.True(t, flagChanged(cmd, "myflag"))
}

// ---------- Exit code tests ----------

func TestExitCodeForError(t *testing.T) {
	assert.Equal(t, 0, exitCodeForError(nil))
	assert.Equal(t, 1, exitCodeForError(assert.AnError))
	assert.Equal(t, 1, exitCodeForError(errbuilder.New().
		WithCode(errbuilder.CodeAlreadyExists).
		WithMsg("conflict")))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name: "errbuilder with msg",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("something broke"),
			expected: "something broke",
		},
		{
			name:     "plain error",
			err:      assert.AnError,
			expected: assert.AnError.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorMessage(tt.err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
