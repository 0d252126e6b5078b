package goartifactcleaner

import "sync/atomic"

// Progress receives progress events from the scan and clean phases.
// Implementations must be safe for concurrent use.
type Progress interface {
	Increment(n int)
	SetMessage(msg string)
	Finish()
}

// NoOpProgress discards all progress events
type NoOpProgress struct{}

func (NoOpProgress) Increment(int)     {}
func (NoOpProgress) SetMessage(string) {}
func (NoOpProgress) Finish()           {}

// progressOrNoOp returns p, or a NoOpProgress if p is nil
func progressOrNoOp(p Progress) Progress {
	if p == nil {
		return NoOpProgress{}
	}
	return p
}

// CategoryTracker accumulates item counts and sizes per category.
// The category set is closed, so a fixed array of atomics replaces a map.
type CategoryTracker struct {
	counts [numCategories]atomic.Int64
	sizes  [numCategories]atomic.Int64
}

// NewCategoryTracker creates an empty tracker
func NewCategoryTracker() *CategoryTracker {
	return &CategoryTracker{}
}

// Add records one item of the given category and size
func (t *CategoryTracker) Add(category Category, size int64) {
	idx := categoryIndex(category)
	t.counts[idx].Add(1)
	t.sizes[idx].Add(size)
}

// AddItems records every item in items
func (t *CategoryTracker) AddItems(items []CandidateItem) {
	for _, item := range items {
		t.Add(item.Match.Category, item.Size)
	}
}

// Count returns the number of items recorded for category
func (t *CategoryTracker) Count(category Category) int64 {
	return t.counts[categoryIndex(category)].Load()
}

// Size returns the bytes recorded for category
func (t *CategoryTracker) Size(category Category) int64 {
	return t.sizes[categoryIndex(category)].Load()
}

// TotalCount returns the number of items across all categories
func (t *CategoryTracker) TotalCount() int64 {
	var total int64
	for i := range t.counts {
		total += t.counts[i].Load()
	}
	return total
}

// TotalSize returns the bytes across all categories
func (t *CategoryTracker) TotalSize() int64 {
	var total int64
	for i := range t.sizes {
		total += t.sizes[i].Load()
	}
	return total
}

func categoryIndex(c Category) int {
	if c < 0 || int(c) >= numCategories {
		return int(CategoryOther)
	}
	return int(c)
}

// ScanStats holds live scan counters for progress displays
type ScanStats struct {
	Entries      atomic.Int64
	Dirs         atomic.Int64
	Files        atomic.Int64
	Matched      atomic.Int64
	MatchedBytes atomic.Int64
}

func (s *ScanStats) recordEntry(isDir bool) {
	if s == nil {
		return
	}
	s.Entries.Add(1)
	if isDir {
		s.Dirs.Add(1)
	} else {
		s.Files.Add(1)
	}
}

func (s *ScanStats) recordMatch(size int64) {
	if s == nil {
		return
	}
	s.Matched.Add(1)
	s.MatchedBytes.Add(size)
}
