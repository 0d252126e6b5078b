package goartifactcleaner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DefaultMaxDepth is the traversal depth used when none is configured
const DefaultMaxDepth = 10

// Depth returns a pointer to n for the MaxDepth options
func Depth(n int) *int {
	return &n
}

const (
	scanQueueSize = 1024
	readDirBatch  = 1000
)

// ScanOptions configures a Scanner.
//
// An exclude match on a directory keeps its whole subtree: nothing below an
// excluded directory becomes a candidate, even if its own name matches a
// delete rule.
type ScanOptions struct {
	// MaxDepth is the deepest level visited below the root (children of the
	// root are depth 1). 0 visits the root only. nil means DefaultMaxDepth.
	MaxDepth *int

	// FollowSymlinks descends into symlinked directories. Link cycles are
	// detected and reported either way.
	FollowSymlinks bool

	// CountDirEntrySize adds the size reported for directory inodes to the
	// total of every candidate directory containing them. By default totals
	// are the bytes of regular files only.
	CountDirEntrySize bool

	Progress   Progress         // Incremented once per candidate found
	Categories *CategoryTracker // Receives every final candidate once
	Stats      *ScanStats       // Live entry counters
}

// sizeRecord is a path and a byte count collected during the walk
type sizeRecord struct {
	path string
	size int64
}

// scanAccumulator is the private partial result of one worker
type scanAccumulator struct {
	items    []CandidateItem
	failures []ScanFailure
	files    []sizeRecord
	dirs     []sizeRecord
	entries  int
}

// merge appends other to a. Merging is plain concatenation, so the merged
// result does not depend on how entries were split between workers.
func (a *scanAccumulator) merge(other *scanAccumulator) {
	a.items = append(a.items, other.items...)
	a.failures = append(a.failures, other.failures...)
	a.files = append(a.files, other.files...)
	a.dirs = append(a.dirs, other.dirs...)
	a.entries += other.entries
}

// scanTask is a directory waiting to be read
type scanTask struct {
	path     string
	depth    int
	excluded bool          // Inside an excluded directory; nothing below may match
	chain    []os.FileInfo // Directories from root to path, kept only when following links
}

// Scanner walks a directory tree and collects candidate items
type Scanner struct {
	root     string
	matcher  *PatternMatcher
	pool     *WorkerPool
	opts     ScanOptions
	maxDepth int
}

// NewScanner creates a scanner for root. The matcher is shared read-only by
// all workers of pool.
func NewScanner(root string, matcher *PatternMatcher, pool *WorkerPool, opts ScanOptions) *Scanner {
	maxDepth := DefaultMaxDepth
	if opts.MaxDepth != nil {
		maxDepth = *opts.MaxDepth
	}
	if pool == nil {
		pool = NewWorkerPool(0)
	}
	return &Scanner{
		root:     root,
		matcher:  matcher,
		pool:     pool,
		opts:     opts,
		maxDepth: maxDepth,
	}
}

// Scan walks the tree and returns the candidates with aggregated sizes.
// Only an unresolvable root is returned as an error; everything else is
// recorded in ScanOutcome.Failures.
func (s *Scanner) Scan() (*ScanOutcome, error) {
	root, err := CanonicalRoot(s.root)
	if err != nil {
		return nil, err
	}

	rootInfo, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootNotFound, err)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}

	rootTask := scanTask{path: root}
	if s.opts.FollowSymlinks {
		rootTask.chain = []os.FileInfo{rootInfo}
	}

	merged := &scanAccumulator{}
	if s.maxDepth > 0 {
		merged = s.walk(rootTask)
	}
	aggregateSizes(root, merged, s.opts.CountDirEntrySize)

	sort.Slice(merged.items, func(i, j int) bool { return merged.items[i].Path < merged.items[j].Path })
	sort.SliceStable(merged.failures, func(i, j int) bool { return merged.failures[i].Path < merged.failures[j].Path })

	if s.opts.Categories != nil {
		s.opts.Categories.AddItems(merged.items)
	}

	return &ScanOutcome{
		Items:          merged.items,
		Failures:       merged.failures,
		EntriesScanned: merged.entries,
	}, nil
}

// walk runs the directory queue on the pool and merges the per-worker
// accumulators once every worker has drained the queue.
func (s *Scanner) walk(rootTask scanTask) *scanAccumulator {
	accs := make([]*scanAccumulator, s.pool.Size())
	taskChan := make(chan scanTask, scanQueueSize)
	var taskWg sync.WaitGroup

	taskWg.Add(1)
	taskChan <- rootTask

	go func() {
		taskWg.Wait()
		close(taskChan)
	}()

	s.pool.Run(func(worker int) {
		acc := &scanAccumulator{}
		accs[worker] = acc
		for task := range taskChan {
			s.processDir(task, acc, taskChan, &taskWg)
			taskWg.Done()
		}
	})

	merged := &scanAccumulator{}
	for _, acc := range accs {
		if acc != nil {
			merged.merge(acc)
		}
	}
	return merged
}

// processDir reads one directory in batches and handles each entry
func (s *Scanner) processDir(task scanTask, acc *scanAccumulator, taskChan chan scanTask, taskWg *sync.WaitGroup) {
	dir, err := os.Open(task.path)
	if err != nil {
		acc.failures = append(acc.failures, newIOFailure(task.path, err))
		return
	}
	defer dir.Close()

	for {
		entries, err := dir.ReadDir(readDirBatch)
		for _, entry := range entries {
			if sub, ok := s.processEntry(task, entry, acc); ok {
				s.enqueue(sub, acc, taskChan, taskWg)
			}
		}
		if err != nil {
			if err != io.EOF {
				acc.failures = append(acc.failures, newIOFailure(task.path, err))
			}
			return
		}
		if len(entries) == 0 {
			return
		}
	}
}

// enqueue hands a subdirectory to any idle worker, or processes it inline
// when the queue is full.
func (s *Scanner) enqueue(task scanTask, acc *scanAccumulator, taskChan chan scanTask, taskWg *sync.WaitGroup) {
	taskWg.Add(1)
	select {
	case taskChan <- task:
	default:
		s.processDir(task, acc, taskChan, taskWg)
		taskWg.Done()
	}
}

// processEntry classifies one entry, records sizes and candidates, and
// returns the subdirectory task when the walk should descend into it.
func (s *Scanner) processEntry(parent scanTask, entry os.DirEntry, acc *scanAccumulator) (scanTask, bool) {
	path := filepath.Join(parent.path, entry.Name())
	depth := parent.depth + 1
	acc.entries++

	mode := entry.Type()
	itemType := ItemFile
	hint := HintFile
	var info os.FileInfo
	var err error

	switch {
	case mode&os.ModeSymlink != 0 && s.opts.FollowSymlinks:
		// A link is matched against both lists whatever it points to
		hint = HintSymlink
		info, err = os.Stat(path)
		if err != nil {
			acc.failures = append(acc.failures, newIOFailure(path, err))
			return scanTask{}, false
		}
		if info.IsDir() {
			if closesLoop(parent.chain, info) {
				acc.failures = append(acc.failures, ScanFailure{Kind: ScanFailureSymlinkCycle, Path: path})
				return scanTask{}, false
			}
			itemType = ItemDirectory
		}

	case mode&os.ModeSymlink != 0:
		info, err = entry.Info()
		if err != nil {
			acc.failures = append(acc.failures, newIOFailure(path, err))
			return scanTask{}, false
		}
		itemType, hint = ItemSymlink, HintSymlink

	case mode.IsDir():
		itemType, hint = ItemDirectory, HintDir
		if s.opts.CountDirEntrySize || s.opts.FollowSymlinks {
			info, err = entry.Info()
			if err != nil {
				acc.failures = append(acc.failures, newIOFailure(path, err))
				return scanTask{}, false
			}
		}

	default:
		info, err = entry.Info()
		if err != nil {
			acc.failures = append(acc.failures, newIOFailure(path, err))
			return scanTask{}, false
		}
		if !info.Mode().IsRegular() {
			hint = HintUnknown
		}
	}

	s.opts.Stats.recordEntry(itemType == ItemDirectory)

	// Sizes are recorded whether or not the entry itself matches
	if itemType == ItemDirectory {
		if s.opts.CountDirEntrySize && info != nil {
			acc.dirs = append(acc.dirs, sizeRecord{path: path, size: info.Size()})
		}
	} else if info.Mode().IsRegular() {
		acc.files = append(acc.files, sizeRecord{path: path, size: info.Size()})
	}

	excluded := parent.excluded
	if !excluded {
		name := entry.Name()
		if s.matcher.IsExcluded(name) {
			excluded = true
		} else if match, ok := s.matcher.Match(name, hint); ok {
			item := CandidateItem{Path: path, Type: itemType, Match: match}
			if itemType != ItemDirectory {
				item.Size = info.Size()
			}
			acc.items = append(acc.items, item)
			s.opts.Stats.recordMatch(item.Size)
			progressOrNoOp(s.opts.Progress).Increment(1)
		}
	}

	if itemType != ItemDirectory || depth >= s.maxDepth {
		return scanTask{}, false
	}

	sub := scanTask{path: path, depth: depth, excluded: excluded}
	if s.opts.FollowSymlinks {
		sub.chain = make([]os.FileInfo, len(parent.chain), len(parent.chain)+1)
		copy(sub.chain, parent.chain)
		sub.chain = append(sub.chain, info)
	}
	return sub, true
}

// closesLoop reports whether target is one of the directories on chain
func closesLoop(chain []os.FileInfo, target os.FileInfo) bool {
	for _, ancestor := range chain {
		if os.SameFile(ancestor, target) {
			return true
		}
	}
	return false
}

// aggregateSizes fills in the size of every candidate directory from the
// recorded file sizes. Each file walks up its own ancestor chain until the
// root, so the pass is linear in files times depth.
func aggregateSizes(root string, acc *scanAccumulator, countDirs bool) {
	index := make(map[string]int)
	for i := range acc.items {
		if acc.items[i].Type == ItemDirectory {
			acc.items[i].Size = 0
			index[acc.items[i].Path] = i
		}
	}
	if len(index) == 0 {
		return
	}

	addToAncestors := func(rec sizeRecord, includeSelf bool) {
		dir := rec.path
		if !includeSelf {
			dir = filepath.Dir(dir)
		}
		for isStrictlyUnder(root, dir) {
			if i, ok := index[dir]; ok {
				acc.items[i].Size += rec.size
			}
			dir = filepath.Dir(dir)
		}
	}

	for _, rec := range acc.files {
		addToAncestors(rec, false)
	}
	if countDirs {
		for _, rec := range acc.dirs {
			addToAncestors(rec, true)
		}
	}
}

// CanonicalRoot resolves root to an absolute path with symlinks evaluated
func CanonicalRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRootNotFound, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRootNotFound, err)
	}
	return filepath.Clean(resolved), nil
}
