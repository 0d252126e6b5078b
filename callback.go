package goartifactcleaner

import "time"

// Callbacks contains callback functions for monitoring the cleaning process.
// Callbacks fired from deletion workers may run concurrently.
type Callbacks struct {
	OnStart        func(info StartInfo)
	OnScanComplete func(info ScanCompleteInfo)
	OnDeleteStart  func(info DeleteStartInfo)
	OnItemDeleted  func(info ItemDeletedInfo)
	OnComplete     func(info CompleteInfo)
	OnError        func(info ErrorInfo)
}

// StartInfo contains information at the start of cleaning
type StartInfo struct {
	Root         string
	DryRun       bool
	Workers      int
	CurrentUsage DiskUsage // Zero when disk usage is unavailable
}

// ScanCompleteInfo contains information after scanning and pruning
type ScanCompleteInfo struct {
	EntriesScanned int
	Candidates     int   // Items matched before pruning
	Items          int   // Items left after pruning
	TotalSize      int64 // Bytes of the pruned items
	Failures       int
	ScanDuration   time.Duration
}

// DeleteStartInfo contains information at the start of deletion
type DeleteStartInfo struct {
	EstimatedItems int
	EstimatedSize  int64
}

// ItemDeletedInfo contains information about a removed item
type ItemDeletedInfo struct {
	Path     string
	Size     int64
	Type     ItemType
	Category Category
}

// CompleteInfo contains information at the completion of cleaning
type CompleteInfo struct {
	ItemsDeleted  int
	BytesFreed    int64
	Failures      int
	CleanDuration time.Duration
}

// ErrorInfo contains error information
type ErrorInfo struct {
	Type  ErrorType
	Path  string
	Error error
}

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeScan   ErrorType = "scan"
	ErrorTypeDelete ErrorType = "delete"
)

// callSafe safely calls a callback function if it's not nil
func callSafe[T any](fn func(T), info T) {
	if fn != nil {
		fn(info)
	}
}
