package goartifactcleaner

import (
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// CleanerState is the lifecycle state of a ParallelCleaner invocation
type CleanerState int32

const (
	CleanerIdle     CleanerState = iota
	CleanerRunning               // Workers are draining the item queue
	CleanerDrained               // Counters are final
	CleanerReported              // Report assembled; the cleaner may be reused
)

// String returns the state name
func (s CleanerState) String() string {
	switch s {
	case CleanerIdle:
		return "idle"
	case CleanerRunning:
		return "running"
	case CleanerDrained:
		return "drained"
	case CleanerReported:
		return "reported"
	default:
		return "unknown"
	}
}

// Statistics holds the live counters of one Clean invocation
type Statistics struct {
	ItemsDeleted atomic.Int64
	BytesFreed   atomic.Int64
	DirsDeleted  atomic.Int64
	FilesDeleted atomic.Int64

	// Written once at the join point, after all workers have returned
	failures map[string]CleanFailure
}

func newStatistics() *Statistics {
	return &Statistics{failures: make(map[string]CleanFailure)}
}

// Failures returns the recorded failures ordered by path
func (s *Statistics) Failures() []CleanFailure {
	out := make([]CleanFailure, 0, len(s.failures))
	for _, f := range s.failures {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// ParallelCleaner deletes candidate items on a worker pool
type ParallelCleaner struct {
	pool      *WorkerPool
	dryRun    bool
	progress  Progress
	callbacks Callbacks

	state atomic.Int32
	stats atomic.Pointer[Statistics]
}

// NewParallelCleaner creates a cleaner that runs on pool.
// A nil pool uses one worker per CPU.
func NewParallelCleaner(pool *WorkerPool) *ParallelCleaner {
	if pool == nil {
		pool = NewWorkerPool(0)
	}
	return &ParallelCleaner{
		pool:     pool,
		progress: NoOpProgress{},
	}
}

// WithDryRun enables or disables dry-run mode
func (c *ParallelCleaner) WithDryRun(dryRun bool) *ParallelCleaner {
	c.dryRun = dryRun
	return c
}

// WithProgress sets the progress sink, incremented once per removed item
func (c *ParallelCleaner) WithProgress(p Progress) *ParallelCleaner {
	c.progress = progressOrNoOp(p)
	return c
}

// WithCallbacks sets the per-item callbacks
func (c *ParallelCleaner) WithCallbacks(cb Callbacks) *ParallelCleaner {
	c.callbacks = cb
	return c
}

// State returns the current lifecycle state
func (c *ParallelCleaner) State() CleanerState {
	return CleanerState(c.state.Load())
}

// Stats returns the counters of the current or last invocation, or nil
func (c *ParallelCleaner) Stats() *Statistics {
	return c.stats.Load()
}

// Clean removes items and blocks until every item has been attempted.
// Per-item failures are returned in the report; the only error is
// ErrCleanerBusy when another Clean on c is still running.
func (c *ParallelCleaner) Clean(items []CandidateItem) (CleanReport, error) {
	if !c.begin() {
		return CleanReport{}, ErrCleanerBusy
	}

	start := time.Now()
	stats := newStatistics()
	c.stats.Store(stats)

	if c.dryRun {
		c.simulate(items, stats)
	} else {
		c.execute(items, stats)
	}
	c.state.Store(int32(CleanerDrained))
	c.progress.Finish()

	report := CleanReport{
		RunID:         uuid.NewString(),
		DryRun:        c.dryRun,
		ItemsDeleted:  int(stats.ItemsDeleted.Load()),
		BytesFreed:    stats.BytesFreed.Load(),
		DirsDeleted:   int(stats.DirsDeleted.Load()),
		FilesDeleted:  int(stats.FilesDeleted.Load()),
		CleanDuration: time.Since(start),
		Failures:      stats.Failures(),
	}
	c.state.Store(int32(CleanerReported))
	return report, nil
}

// begin moves the cleaner to Running from Idle or Reported
func (c *ParallelCleaner) begin() bool {
	for {
		s := CleanerState(c.state.Load())
		if s == CleanerRunning || s == CleanerDrained {
			return false
		}
		if c.state.CompareAndSwap(int32(s), int32(CleanerRunning)) {
			return true
		}
	}
}

// simulate fills stats as if every item had been removed
func (c *ParallelCleaner) simulate(items []CandidateItem, stats *Statistics) {
	for _, item := range items {
		stats.record(item)
		c.progress.Increment(1)
	}
}

// execute deletes the items largest first and merges the per-worker
// failure lists once all workers have returned.
func (c *ParallelCleaner) execute(items []CandidateItem, stats *Statistics) {
	if len(items) == 0 {
		return
	}

	ordered := make([]CandidateItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Size > ordered[j].Size })

	taskChan := make(chan CandidateItem, len(ordered))
	for _, item := range ordered {
		taskChan <- item
	}
	close(taskChan)

	failures := make([][]CleanFailure, c.pool.Size())
	c.pool.Run(func(worker int) {
		for item := range taskChan {
			if err := removeItem(item); err != nil {
				failure := CleanFailure{Path: item.Path, Message: err.Error()}
				failures[worker] = append(failures[worker], failure)
				callSafe(c.callbacks.OnError, ErrorInfo{
					Type:  ErrorTypeDelete,
					Path:  item.Path,
					Error: failure,
				})
				continue
			}

			stats.record(item)
			c.progress.Increment(1)
			callSafe(c.callbacks.OnItemDeleted, ItemDeletedInfo{
				Path:     item.Path,
				Size:     item.Size,
				Type:     item.Type,
				Category: item.Match.Category,
			})
		}
	})

	for _, list := range failures {
		for _, f := range list {
			stats.failures[f.Path] = f
		}
	}
}

func (s *Statistics) record(item CandidateItem) {
	s.ItemsDeleted.Add(1)
	s.BytesFreed.Add(item.Size)
	if item.Type == ItemDirectory {
		s.DirsDeleted.Add(1)
	} else {
		s.FilesDeleted.Add(1)
	}
}

// removeItem deletes one item. Directories are removed recursively, files
// and symlinks with a single unlink so link targets are never touched. An
// item that no longer exists is a failure.
func removeItem(item CandidateItem) error {
	info, err := os.Lstat(item.Path)
	if err != nil {
		return err
	}
	if item.Type == ItemDirectory && info.Mode()&os.ModeSymlink == 0 {
		return os.RemoveAll(item.Path)
	}
	return os.Remove(item.Path)
}
