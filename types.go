package goartifactcleaner

import (
	"fmt"
	"strings"
)

// ItemType represents the kind of filesystem entry a candidate is
type ItemType int

const (
	ItemDirectory ItemType = iota
	ItemFile
	ItemSymlink
)

// String returns the lower-case name of the item type
func (t ItemType) String() string {
	switch t {
	case ItemDirectory:
		return "directory"
	case ItemFile:
		return "file"
	case ItemSymlink:
		return "symlink"
	default:
		return fmt.Sprintf("ItemType(%d)", int(t))
	}
}

// MarshalText encodes the item type by name so JSON reports stay readable
func (t ItemType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Category groups matched items for reporting
type Category int

const (
	CategoryDependencies Category = iota
	CategoryBuildOutputs
	CategoryCache
	CategoryIDE
	CategoryLogs
	CategoryOther

	numCategories = int(CategoryOther) + 1
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryDependencies,
	CategoryBuildOutputs,
	CategoryCache,
	CategoryIDE,
	CategoryLogs,
	CategoryOther,
}

// String returns the category identifier
func (c Category) String() string {
	switch c {
	case CategoryDependencies:
		return "Dependencies"
	case CategoryBuildOutputs:
		return "BuildOutputs"
	case CategoryCache:
		return "Cache"
	case CategoryIDE:
		return "IDE"
	case CategoryLogs:
		return "Logs"
	default:
		return "Other"
	}
}

// Label returns a short human-readable label for the category
func (c Category) Label() string {
	if c == CategoryBuildOutputs {
		return "Build"
	}
	return c.String()
}

// MarshalText implements encoding.TextMarshaler
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseCategory converts a category name into a Category.
// Unknown names map to CategoryOther.
func ParseCategory(name string) Category {
	for _, c := range Categories {
		if strings.EqualFold(name, c.String()) || strings.EqualFold(name, c.Label()) {
			return c
		}
	}
	return CategoryOther
}

// PatternSource records where a pattern came from
type PatternSource int

const (
	SourceBuiltIn PatternSource = iota
	SourceConfig
	SourceCLI
)

// String returns the source name
func (s PatternSource) String() string {
	switch s {
	case SourceBuiltIn:
		return "builtin"
	case SourceConfig:
		return "config"
	case SourceCLI:
		return "cli"
	default:
		return fmt.Sprintf("PatternSource(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler
func (s PatternSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FileTypeHint tells the matcher what kind of entry a name belongs to
type FileTypeHint int

const (
	HintUnknown FileTypeHint = iota
	HintDir
	HintFile
	HintSymlink
)

// MatchResult describes the rule that selected an entry
type MatchResult struct {
	Pattern  string        `json:"pattern"`
	Priority int           `json:"priority"` // Lower is checked first
	Source   PatternSource `json:"source"`
	Category Category      `json:"category"`
}

// CandidateItem is a filesystem entry selected for deletion
type CandidateItem struct {
	Path  string      `json:"path"`
	Size  int64       `json:"size"` // Recursive size for directories
	Type  ItemType    `json:"type"`
	Match MatchResult `json:"match"`
}

// ScanOutcome is the merged result of a scan
type ScanOutcome struct {
	Items          []CandidateItem
	Failures       []ScanFailure
	EntriesScanned int
}

// TotalSize returns the summed size of all items
func TotalSize(items []CandidateItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Size
	}
	return total
}

// CountByType returns the number of directory and non-directory items
func CountByType(items []CandidateItem) (dirs, files int) {
	for _, item := range items {
		if item.Type == ItemDirectory {
			dirs++
		} else {
			files++
		}
	}
	return dirs, files
}
