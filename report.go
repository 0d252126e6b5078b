package goartifactcleaner

import "time"

// CleanReport represents the result of a cleaning operation.
// In dry-run mode the counts describe what would have been removed.
type CleanReport struct {
	RunID  string `json:"run_id"`
	Root   string `json:"root,omitempty"`
	DryRun bool   `json:"dry_run"`

	// Deletion statistics
	ItemsDeleted int   `json:"items_deleted"`
	BytesFreed   int64 `json:"bytes_freed"`
	DirsDeleted  int   `json:"dirs_deleted"`
	FilesDeleted int   `json:"files_deleted"` // Files and symlinks

	// Processing time
	ScanDuration  time.Duration `json:"scan_duration"`
	CleanDuration time.Duration `json:"clean_duration"`
	TotalDuration time.Duration `json:"total_duration"`

	// Other information
	EntriesScanned int             `json:"entries_scanned"`
	Items          []CandidateItem `json:"items,omitempty"` // Pruned items handed to the cleaner
	Failures       []CleanFailure  `json:"failures"`
	ScanFailures   []ScanFailure   `json:"scan_failures"`
}

// HasFailures reports whether any scan or clean failure was recorded
func (r *CleanReport) HasFailures() bool {
	return len(r.Failures) > 0 || len(r.ScanFailures) > 0
}

// FailureCount returns the number of scan and clean failures
func (r *CleanReport) FailureCount() int {
	return len(r.Failures) + len(r.ScanFailures)
}

// BytesPerSecond returns the clean throughput, or 0 if nothing was timed
func (r *CleanReport) BytesPerSecond() float64 {
	if r.CleanDuration <= 0 {
		return 0
	}
	return float64(r.BytesFreed) / r.CleanDuration.Seconds()
}

// ItemsPerSecond returns the number of items removed per second of cleaning
func (r *CleanReport) ItemsPerSecond() float64 {
	if r.CleanDuration <= 0 {
		return 0
	}
	return float64(r.ItemsDeleted) / r.CleanDuration.Seconds()
}
