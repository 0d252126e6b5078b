package goartifactcleaner

import (
	"errors"
	"fmt"
	"time"
)

// Plan is a scanned and pruned set of items waiting to be deleted
type Plan struct {
	Root           string
	Items          []CandidateItem // Pruned, in prune order
	Candidates     int             // Matches before pruning
	EntriesScanned int
	ScanFailures   []ScanFailure
	ScanDuration   time.Duration

	config    CleaningConfig
	pool      *WorkerPool
	startTime time.Time
}

// TotalSize returns the bytes the plan would free
func (p *Plan) TotalSize() int64 {
	return TotalSize(p.Items)
}

// Empty reports whether there is nothing to delete
func (p *Plan) Empty() bool {
	return len(p.Items) == 0
}

// Workers returns the number of workers used for scanning and deletion
func (p *Plan) Workers() int {
	return p.pool.Size()
}

// WithCleanProgress replaces the progress sink used by Execute
func (p *Plan) WithCleanProgress(progress Progress) *Plan {
	p.config.CleanProgress = progress
	return p
}

// Prepare validates the configuration and root, then scans and prunes.
//
// An error is returned only for invalid configuration or patterns, an
// unresolvable root or a guard rejection. Scan failures are kept in the plan.
func Prepare(root string, config CleaningConfig) (*Plan, error) {
	startTime := time.Now()

	// Set defaults and validate configuration
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	canonical, err := CanonicalRoot(root)
	if err != nil {
		return nil, err
	}

	if config.Guard != nil {
		if err := config.Guard.Validate(canonical); err != nil {
			if !errors.Is(err, ErrSafetyViolation) {
				err = fmt.Errorf("%w: %v", ErrSafetyViolation, err)
			}
			return nil, err
		}
	}

	matcher, err := config.BuildMatcher()
	if err != nil {
		return nil, err
	}

	pool := NewWorkerPool(config.ActualWorkerCount())

	var usage DiskUsage
	if current, err := config.DiskInfo.GetDiskUsage(canonical); err == nil && current != nil {
		usage = *current
	}
	callSafe(config.Callbacks.OnStart, StartInfo{
		Root:         canonical,
		DryRun:       config.DryRun,
		Workers:      pool.Size(),
		CurrentUsage: usage,
	})

	scanStartTime := time.Now()
	scanner := NewScanner(canonical, matcher, pool, ScanOptions{
		MaxDepth:          config.MaxDepth,
		FollowSymlinks:    config.FollowSymlinks,
		CountDirEntrySize: config.CountDirEntrySize,
		Progress:          config.ScanProgress,
		Stats:             config.ScanStats,
	})
	outcome, err := scanner.Scan()
	if err != nil {
		return nil, err
	}
	progressOrNoOp(config.ScanProgress).Finish()

	for _, failure := range outcome.Failures {
		callSafe(config.Callbacks.OnError, ErrorInfo{
			Type:  ErrorTypeScan,
			Path:  failure.Path,
			Error: failure,
		})
	}

	items := PruneNestedItems(outcome.Items)
	if config.Categories != nil {
		config.Categories.AddItems(items)
	}
	scanDuration := time.Since(scanStartTime)

	plan := &Plan{
		Root:           canonical,
		Items:          items,
		Candidates:     len(outcome.Items),
		EntriesScanned: outcome.EntriesScanned,
		ScanFailures:   outcome.Failures,
		ScanDuration:   scanDuration,
		config:         config,
		pool:           pool,
		startTime:      startTime,
	}

	callSafe(config.Callbacks.OnScanComplete, ScanCompleteInfo{
		EntriesScanned: plan.EntriesScanned,
		Candidates:     plan.Candidates,
		Items:          len(items),
		TotalSize:      plan.TotalSize(),
		Failures:       len(plan.ScanFailures),
		ScanDuration:   scanDuration,
	})

	return plan, nil
}

// Execute deletes the planned items, or only counts them in dry-run mode
func (p *Plan) Execute() (CleanReport, error) {
	callSafe(p.config.Callbacks.OnDeleteStart, DeleteStartInfo{
		EstimatedItems: len(p.Items),
		EstimatedSize:  p.TotalSize(),
	})

	cleaner := NewParallelCleaner(p.pool).
		WithDryRun(p.config.DryRun).
		WithProgress(p.config.CleanProgress).
		WithCallbacks(p.config.Callbacks)
	report, err := cleaner.Clean(p.Items)
	if err != nil {
		return CleanReport{}, err
	}

	callSafe(p.config.Callbacks.OnComplete, CompleteInfo{
		ItemsDeleted:  report.ItemsDeleted,
		BytesFreed:    report.BytesFreed,
		Failures:      len(report.Failures),
		CleanDuration: report.CleanDuration,
	})

	report.Root = p.Root
	report.Items = p.Items
	report.EntriesScanned = p.EntriesScanned
	report.ScanFailures = p.ScanFailures
	report.ScanDuration = p.ScanDuration
	report.TotalDuration = time.Since(p.startTime)
	return report, nil
}

// Clean removes the build artifacts found under root.
//
// The root is canonicalized and passed to the configured Guard, then the tree
// is scanned, nested matches are pruned and the remaining items are deleted
// in parallel. Per-item problems are reported in the CleanReport.
func Clean(root string, config CleaningConfig) (CleanReport, error) {
	plan, err := Prepare(root, config)
	if err != nil {
		return CleanReport{}, err
	}
	return plan.Execute()
}

// DryRun reports what Clean would remove without touching the filesystem
func DryRun(root string, config CleaningConfig) (CleanReport, error) {
	config.DryRun = true
	return Clean(root, config)
}
