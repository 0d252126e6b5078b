package goartifactcleaner

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildScenarioTree creates the tree used by the end-to-end tests:
// node_modules/pkg/dist (empty), dist/bundle.js (200 bytes), app.log (10 bytes)
func buildScenarioTree(t *testing.T) string {
	t.Helper()
	root := canonicalTempDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg", "dist"), 0755))
	require.NoError(t, createTestFile(filepath.Join(root, "dist", "bundle.js"), 200))
	require.NoError(t, createTestFile(filepath.Join(root, "app.log"), 10))
	require.NoError(t, createTestFile(filepath.Join(root, "src", "main.go"), 50))
	return root
}

func TestEndToEndScenario(t *testing.T) {
	root := buildScenarioTree(t)

	outcome, err := NewScanner(root, DefaultPatternMatcher(), NewWorkerPool(4), ScanOptions{}).Scan()
	require.NoError(t, err)
	assert.Len(t, outcome.Items, 4)

	pruned := PruneNestedItems(outcome.Items)
	require.Len(t, pruned, 3)
	assert.Equal(t, []string{
		filepath.Join(root, "app.log"),
		filepath.Join(root, "dist"),
		filepath.Join(root, "node_modules"),
	}, []string{pruned[0].Path, pruned[1].Path, pruned[2].Path})

	report, err := NewParallelCleaner(NewWorkerPool(4)).Clean(pruned)
	require.NoError(t, err)
	assert.Equal(t, 3, report.ItemsDeleted)
	assert.Equal(t, int64(210), report.BytesFreed)
	assert.Equal(t, 2, report.DirsDeleted)
	assert.Equal(t, 1, report.FilesDeleted)
	assert.Empty(t, report.Failures)
	assert.False(t, report.DryRun)

	for _, item := range pruned {
		assert.NoFileExists(t, item.Path)
		assert.NoDirExists(t, item.Path)
	}
	assert.FileExists(t, filepath.Join(root, "src", "main.go"))
}

func TestClean(t *testing.T) {
	root := buildScenarioTree(t)

	var (
		mu      sync.Mutex
		deleted []string
		calls   []string
	)
	record := func(name string) {
		mu.Lock()
		calls = append(calls, name)
		mu.Unlock()
	}

	config := CleaningConfig{
		Concurrency: 2,
		DiskInfo:    &mockDiskInfoProvider{},
		Callbacks: Callbacks{
			OnStart: func(info StartInfo) {
				record("start")
				assert.Equal(t, root, info.Root)
				assert.Equal(t, uint64(2*1024*1024*1024), info.CurrentUsage.Free)
			},
			OnScanComplete: func(info ScanCompleteInfo) {
				record("scan")
				assert.Equal(t, 4, info.Candidates)
				assert.Equal(t, 3, info.Items)
				assert.Equal(t, int64(210), info.TotalSize)
			},
			OnDeleteStart: func(info DeleteStartInfo) { record("delete") },
			OnItemDeleted: func(info ItemDeletedInfo) {
				mu.Lock()
				deleted = append(deleted, info.Path)
				mu.Unlock()
			},
			OnComplete: func(info CompleteInfo) { record("complete") },
		},
	}

	report, err := Clean(root, config)
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "scan", "delete", "complete"}, calls)
	assert.Len(t, deleted, 3)
	assert.Equal(t, 3, report.ItemsDeleted)
	assert.Equal(t, int64(210), report.BytesFreed)
	assert.Equal(t, root, report.Root)
	assert.NotEmpty(t, report.RunID)
	assert.Len(t, report.Items, 3)
	assert.Greater(t, report.EntriesScanned, 0)
	assert.GreaterOrEqual(t, report.TotalDuration, report.ScanDuration)
	assert.NoDirExists(t, filepath.Join(root, "node_modules"))
	assert.FileExists(t, filepath.Join(root, "src", "main.go"))
}

func TestPrepareThenExecute(t *testing.T) {
	root := buildScenarioTree(t)

	var deleteStarted atomic.Bool
	plan, err := Prepare(root, CleaningConfig{
		Concurrency: 3,
		Callbacks: Callbacks{
			OnDeleteStart: func(DeleteStartInfo) { deleteStarted.Store(true) },
		},
	})
	require.NoError(t, err)

	// Nothing is removed until Execute
	assert.False(t, plan.Empty())
	assert.Equal(t, root, plan.Root)
	assert.Equal(t, 4, plan.Candidates)
	assert.Len(t, plan.Items, 3)
	assert.Equal(t, int64(210), plan.TotalSize())
	assert.Equal(t, 3, plan.Workers())
	assert.False(t, deleteStarted.Load())
	assert.DirExists(t, filepath.Join(root, "node_modules"))

	progress := &countingProgress{}
	report, err := plan.WithCleanProgress(progress).Execute()
	require.NoError(t, err)

	assert.True(t, deleteStarted.Load())
	assert.Equal(t, int64(3), progress.count())
	assert.True(t, progress.finished.Load())
	assert.Equal(t, 3, report.ItemsDeleted)
	assert.Equal(t, int64(210), report.BytesFreed)
	assert.Equal(t, plan.Items, report.Items)
	assert.GreaterOrEqual(t, report.TotalDuration, report.ScanDuration)
	assert.NoDirExists(t, filepath.Join(root, "node_modules"))
}

func TestPrepareEmptyTree(t *testing.T) {
	root := canonicalTempDir(t)
	require.NoError(t, createTestFile(filepath.Join(root, "main.go"), 10))

	plan, err := Prepare(root, CleaningConfig{})
	require.NoError(t, err)
	assert.True(t, plan.Empty())

	report, err := plan.Execute()
	require.NoError(t, err)
	assert.Zero(t, report.ItemsDeleted)
	assert.FileExists(t, filepath.Join(root, "main.go"))
}

func TestDryRunPurity(t *testing.T) {
	root := buildScenarioTree(t)
	before := snapshotTree(t, root)

	tracker := NewCategoryTracker()
	report, err := DryRun(root, CleaningConfig{
		DiskInfo:   &mockDiskInfoProvider{},
		Categories: tracker,
	})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 3, report.ItemsDeleted)
	assert.Equal(t, TotalSize(report.Items), report.BytesFreed)
	assert.Equal(t, int64(210), report.BytesFreed)
	assert.Equal(t, 2, report.DirsDeleted)
	assert.Equal(t, 1, report.FilesDeleted)
	assert.Equal(t, before, snapshotTree(t, root))

	assert.Equal(t, int64(3), tracker.TotalCount())
	assert.Equal(t, int64(200), tracker.Size(CategoryBuildOutputs))
}

func TestCleanWithCLIPatterns(t *testing.T) {
	root := canonicalTempDir(t)
	require.NoError(t, createTestFile(filepath.Join(root, "tmp", "scratch"), 5))
	require.NoError(t, createTestFile(filepath.Join(root, "dist", "a.js"), 7))
	require.NoError(t, createTestFile(filepath.Join(root, "old.bak"), 3))

	report, err := DryRun(root, CleaningConfig{
		Include:  []string{"tmp", "*.bak"},
		Exclude:  []string{"dist"},
		DiskInfo: &mockDiskInfoProvider{},
	})
	require.NoError(t, err)

	var found []string
	for _, item := range report.Items {
		found = append(found, filepath.Base(item.Path))
		assert.Equal(t, SourceCLI, item.Match.Source)
	}
	assert.ElementsMatch(t, []string{"tmp", "old.bak"}, found)
}

func TestCleanFatalErrors(t *testing.T) {
	t.Run("invalid pattern", func(t *testing.T) {
		_, err := DryRun(t.TempDir(), CleaningConfig{
			Patterns: &PatternConfig{Directories: []string{"[oops"}},
			DiskInfo: &mockDiskInfoProvider{},
		})
		require.ErrorIs(t, err, ErrInvalidPattern)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := DryRun(filepath.Join(t.TempDir(), "missing"), CleaningConfig{})
		require.ErrorIs(t, err, ErrRootNotFound)
	})

	t.Run("guard rejection", func(t *testing.T) {
		root := buildScenarioTree(t)
		_, err := Clean(root, CleaningConfig{
			Guard:    guardFunc(func(string) error { return errors.New("inside a repository") }),
			DiskInfo: &mockDiskInfoProvider{},
		})
		require.ErrorIs(t, err, ErrSafetyViolation)
		assert.DirExists(t, filepath.Join(root, "node_modules"))
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := DryRun(t.TempDir(), CleaningConfig{MaxDepth: Depth(-1)})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestCleanReportsScanFailures(t *testing.T) {
	root := canonicalTempDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0755))
	if err := os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "a", "loop")); err != nil {
		t.Skip("Cannot create symlinks on this system")
	}

	var scanErrors atomic.Int32
	report, err := DryRun(root, CleaningConfig{
		FollowSymlinks: true,
		DiskInfo:       &mockDiskInfoProvider{},
		Callbacks: Callbacks{
			OnError: func(info ErrorInfo) {
				if info.Type == ErrorTypeScan {
					scanErrors.Add(1)
				}
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, report.ScanFailures, 1)
	assert.Equal(t, ScanFailureSymlinkCycle, report.ScanFailures[0].Kind)
	assert.Equal(t, int32(1), scanErrors.Load())
	assert.True(t, report.HasFailures())
}

// Helper functions

func createTestFile(path string, size int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	data := make([]byte, size)
	_, err = file.Write(data)
	return err
}

// canonicalTempDir returns a temp dir with symlinks resolved so paths
// compare equal to scanner output
func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := CanonicalRoot(t.TempDir())
	require.NoError(t, err)
	return dir
}

// snapshotTree lists every path under root with its size
func snapshotTree(t *testing.T, root string) map[string]int64 {
	t.Helper()
	out := make(map[string]int64)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		out[path] = info.Size()
		return nil
	})
	require.NoError(t, err)
	return out
}

type countingProgress struct {
	n        atomic.Int64
	finished atomic.Bool
}

func (p *countingProgress) Increment(n int)   { p.n.Add(int64(n)) }
func (p *countingProgress) SetMessage(string) {}
func (p *countingProgress) Finish()           { p.finished.Store(true) }
func (p *countingProgress) count() int64      { return p.n.Load() }

type guardFunc func(root string) error

func (g guardFunc) Validate(root string) error { return g(root) }

// mockDiskInfoProvider is a mock implementation for testing
type mockDiskInfoProvider struct{}

func (m *mockDiskInfoProvider) GetDiskUsage(path string) (*DiskUsage, error) {
	return &DiskUsage{
		Total:       10 * 1024 * 1024 * 1024, // 10GB
		Used:        8 * 1024 * 1024 * 1024,  // 8GB
		Free:        2 * 1024 * 1024 * 1024,  // 2GB
		UsedPercent: 80.0,
	}, nil
}
