package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cleaner "github.com/ideamans/go-artifact-cleaner"
	"github.com/ideamans/go-artifact-cleaner/internal/config"
	"github.com/ideamans/go-artifact-cleaner/internal/filelock"
)

// executeCommand runs the root command with args and returns stdout and stderr
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func createTestFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0644))
}

// setupProject creates a project with three candidates worth 155 bytes and
// makes it the working directory
func setupProject(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	createTestFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), 100)
	createTestFile(t, filepath.Join(root, "target", "debug", "app"), 50)
	createTestFile(t, filepath.Join(root, "src", "main.go"), 10)
	createTestFile(t, filepath.Join(root, "src", "cache.pyc"), 5)

	// The free space check depends on the machine running the tests
	require.NoError(t, os.WriteFile(filepath.Join(root, config.ProjectFileName),
		[]byte("safety:\n  min_free_space_gb: 0\n"), 0644))

	chdir(t, root)
	return root
}

func TestRootCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "artifact-cleaner")
	assert.Contains(t, stdout, "--dry-run")
	assert.Contains(t, stdout, "--no-git-check")

	names := []string{}
	for _, sub := range NewRootCommand().Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"list", "init", "config"})
}

func TestCleanWithYes(t *testing.T) {
	root := setupProject(t)

	stdout, _, err := executeCommand(t, "", "--yes")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Found 3 items (2 dirs, 1 files)")
	assert.Contains(t, stdout, "✓ Cleaned 3 items (2 dirs, 1 files)")
	assert.Contains(t, stdout, "✓ Freed 155 B")
	assert.Contains(t, stdout, "Done!")
	assert.NotContains(t, stdout, "Proceed with cleaning?")

	assert.NoDirExists(t, filepath.Join(root, "node_modules"))
	assert.NoDirExists(t, filepath.Join(root, "target"))
	assert.NoFileExists(t, filepath.Join(root, "src", "cache.pyc"))
	assert.FileExists(t, filepath.Join(root, "src", "main.go"))
}

func TestCleanDryRun(t *testing.T) {
	root := setupProject(t)

	stdout, _, err := executeCommand(t, "", "--dry-run", root)
	require.NoError(t, err)

	assert.Contains(t, stdout, "✓ 3 items (2 dirs, 1 files)")
	assert.Contains(t, stdout, "✓ 155 B would be freed")
	assert.Contains(t, stdout, "Dry run complete!")
	assert.NotContains(t, stdout, "Proceed with cleaning?")

	assert.DirExists(t, filepath.Join(root, "node_modules"))
	assert.FileExists(t, filepath.Join(root, "src", "cache.pyc"))
}

func TestCleanConfirmation(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		root := setupProject(t)

		stdout, _, err := executeCommand(t, "n\n")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Proceed with cleaning? [y/N]: ")
		assert.Contains(t, stdout, "Cleaning cancelled")
		assert.DirExists(t, filepath.Join(root, "node_modules"))
	})

	t.Run("empty answer declines", func(t *testing.T) {
		root := setupProject(t)

		stdout, _, err := executeCommand(t, "")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Cleaning cancelled")
		assert.DirExists(t, filepath.Join(root, "target"))
	})

	t.Run("accepted", func(t *testing.T) {
		root := setupProject(t)

		stdout, _, err := executeCommand(t, "y\n")
		require.NoError(t, err)
		assert.Contains(t, stdout, "✓ Cleaned 3 items")
		assert.NoDirExists(t, filepath.Join(root, "node_modules"))
	})

	t.Run("not required by config", func(t *testing.T) {
		root := setupProject(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, config.ProjectFileName),
			[]byte("options:\n  require_confirmation: false\nsafety:\n  min_free_space_gb: 0\n"), 0644))

		stdout, _, err := executeCommand(t, "")
		require.NoError(t, err)
		assert.NotContains(t, stdout, "Proceed with cleaning?")
		assert.NoDirExists(t, filepath.Join(root, "node_modules"))
	})
}

func TestConfirmRequiresTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	ok, err := confirm(f, &bytes.Buffer{})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNoConfirmation)
}

func TestConfirmAnswers(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"y", true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			ok, err := confirm(strings.NewReader(tt.input), &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func TestCleanPatternsFromFlags(t *testing.T) {
	root := setupProject(t)

	_, _, err := executeCommand(t, "", "--yes", "-e", "target", "-i", "*.go")
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(root, "target"))
	assert.NoFileExists(t, filepath.Join(root, "src", "main.go"))
	assert.NoDirExists(t, filepath.Join(root, "node_modules"))
}

func TestCleanInsideGitRepository(t *testing.T) {
	root := setupProject(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))

	stdout, stderr, err := executeCommand(t, "", "--yes")
	require.NoError(t, err, "a refused root is reported, not failed")
	assert.Contains(t, stderr, "Warning: Refusing to clean "+root)
	assert.Contains(t, stderr, "--no-git-check")
	assert.NotContains(t, stdout, "Cleaned")
	assert.DirExists(t, filepath.Join(root, "node_modules"))

	_, _, err = executeCommand(t, "", "--yes", "--no-git-check")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(root, "node_modules"))
	assert.DirExists(t, filepath.Join(root, ".git"))
}

func TestCleanJSONReport(t *testing.T) {
	setupProject(t)

	stdout, _, err := executeCommand(t, "", "--yes", "--json")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, float64(3), report["items_deleted"])
	assert.Equal(t, float64(155), report["bytes_freed"])
	assert.Equal(t, false, report["dry_run"])
	assert.NotEmpty(t, report["run_id"])
}

func TestCleanQuiet(t *testing.T) {
	root := setupProject(t)

	stdout, stderr, err := executeCommand(t, "", "--yes", "--quiet")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
	assert.NoDirExists(t, filepath.Join(root, "node_modules"))
}

func TestCleanVerboseLogsItems(t *testing.T) {
	root := setupProject(t)

	_, stderr, err := executeCommand(t, "", "--yes", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "[DEBUG] Removed directory "+filepath.Join(root, "node_modules"))
	assert.Contains(t, stderr, "Clean complete")
}

func TestCleanNothingToDo(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	createTestFile(t, filepath.Join(root, "main.go"), 10)
	require.NoError(t, os.WriteFile(filepath.Join(root, config.ProjectFileName),
		[]byte("safety:\n  min_free_space_gb: 0\n"), 0644))
	chdir(t, root)

	stdout, _, err := executeCommand(t, "")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No files to clean!")
}

func TestCleanMaxDepthZero(t *testing.T) {
	root := setupProject(t)

	stdout, _, err := executeCommand(t, "", "--yes", "--max-depth", "0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No files to clean!")
	assert.DirExists(t, filepath.Join(root, "node_modules"))
}

func TestCleanErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		setupProject(t)
		_, _, err := executeCommand(t, "", "--yes", "does-not-exist")
		assert.ErrorIs(t, err, cleaner.ErrRootNotFound)
	})

	t.Run("invalid depth", func(t *testing.T) {
		setupProject(t)
		_, _, err := executeCommand(t, "", "--yes", "--max-depth", "-1")
		assert.ErrorIs(t, err, cleaner.ErrInvalidConfig)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		setupProject(t)
		_, _, err := executeCommand(t, "", "--yes", "-i", "[broken")
		assert.ErrorIs(t, err, cleaner.ErrInvalidPattern)
	})

	t.Run("missing config file", func(t *testing.T) {
		setupProject(t)
		_, _, err := executeCommand(t, "", "--config", "missing.yaml")
		assert.Error(t, err)
	})

	t.Run("clean already running", func(t *testing.T) {
		root := setupProject(t)
		lock, err := filelock.AcquireRunLock(root)
		require.NoError(t, err)
		defer lock.Unlock()

		_, _, err = executeCommand(t, "", "--yes")
		assert.ErrorIs(t, err, filelock.ErrLocked)
		assert.DirExists(t, filepath.Join(root, "node_modules"))
	})
}
