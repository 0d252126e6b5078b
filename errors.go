package goartifactcleaner

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern is returned when a glob pattern cannot be compiled
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrRootNotFound is returned when the root path cannot be resolved
	ErrRootNotFound = errors.New("root path cannot be resolved")

	// ErrInvalidConfig is returned when the configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCleanerBusy is returned when Clean is called while a previous call is still running
	ErrCleanerBusy = errors.New("cleaner is already running")

	// ErrSafetyViolation is returned by guards that refuse a root path
	ErrSafetyViolation = errors.New("safety check failed")
)

// ScanFailureKind distinguishes the two kinds of scan failures
type ScanFailureKind int

const (
	ScanFailureIO ScanFailureKind = iota
	ScanFailureSymlinkCycle
)

// String returns the failure kind name
func (k ScanFailureKind) String() string {
	if k == ScanFailureSymlinkCycle {
		return "symlink_cycle"
	}
	return "io"
}

// MarshalText implements encoding.TextMarshaler
func (k ScanFailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ScanFailure is a recoverable error encountered while walking the tree.
// It excludes the entry and its subtree but never stops the walk.
type ScanFailure struct {
	Kind    ScanFailureKind `json:"kind"`
	Path    string          `json:"path"`
	Message string          `json:"message,omitempty"`
}

func (f ScanFailure) Error() string {
	if f.Kind == ScanFailureSymlinkCycle {
		return fmt.Sprintf("symbolic link cycle detected at %s", f.Path)
	}
	return fmt.Sprintf("io error at %s: %s", f.Path, f.Message)
}

func newIOFailure(path string, err error) ScanFailure {
	return ScanFailure{Kind: ScanFailureIO, Path: path, Message: err.Error()}
}

// CleanFailure is an error encountered while deleting a single item
type CleanFailure struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (f CleanFailure) Error() string {
	return fmt.Sprintf("io error at %s: %s", f.Path, f.Message)
}
