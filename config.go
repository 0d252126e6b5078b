package goartifactcleaner

import (
	"fmt"
	"runtime"
)

// Guard validates a canonical root before anything is scanned.
// Rejections should wrap ErrSafetyViolation.
type Guard interface {
	Validate(root string) error
}

// CleaningConfig represents the configuration for cleaning operations
type CleaningConfig struct {
	// Patterns are the rule lists to compile. If nil, the built-in rules are used.
	Patterns      *PatternConfig
	PatternSource PatternSource // Source tag for Patterns

	// Include and Exclude are appended after Patterns with the SourceCLI tag
	Include []string
	Exclude []string

	// Matcher, if set, is used as is and the pattern fields above are ignored
	Matcher *PatternMatcher

	// Traversal settings
	MaxDepth          *int // Default: 10; 0 scans the root only
	FollowSymlinks    bool // Default: false
	CountDirEntrySize bool // Add directory inode sizes to directory totals

	DryRun bool

	// Concurrency specifies the desired level of concurrency.
	// If 0, defaults to runtime.NumCPU().
	Concurrency int

	// MaxConcurrency limits the maximum level of concurrency.
	// Defaults to 16; deletion throughput is bound by the filesystem well
	// before that. The actual concurrency will be min(Concurrency, MaxConcurrency).
	MaxConcurrency int

	// Progress sinks and live counters
	ScanProgress  Progress
	CleanProgress Progress
	Categories    *CategoryTracker
	ScanStats     *ScanStats

	// Callbacks
	Callbacks Callbacks

	// Dependency injection
	Guard    Guard            // If nil, no safety checks run
	DiskInfo DiskInfoProvider // If nil, uses default implementation
}

// setDefaults sets default values for the configuration
func (c *CleaningConfig) setDefaults() {
	if c.Patterns == nil && c.Matcher == nil {
		defaults := DefaultPatternConfig()
		c.Patterns = &defaults
		c.PatternSource = SourceBuiltIn
	}

	if c.MaxDepth == nil {
		c.MaxDepth = Depth(DefaultMaxDepth)
	}

	// Set default concurrency to CPU count if not specified
	if c.Concurrency == 0 {
		c.Concurrency = runtime.NumCPU()
	}

	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 16
	}

	if c.DiskInfo == nil {
		c.DiskInfo = &DefaultDiskInfoProvider{}
	}
}

// ActualWorkerCount returns the actual number of workers that will be used
func (c *CleaningConfig) ActualWorkerCount() int {
	workers := c.Concurrency
	if workers > c.MaxConcurrency {
		workers = c.MaxConcurrency
	}
	return workers
}

// validate checks if the configuration is valid
func (c *CleaningConfig) validate() error {
	if c.MaxDepth != nil && *c.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must not be negative", ErrInvalidConfig)
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must not be negative", ErrInvalidConfig)
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("%w: max concurrency must not be negative", ErrInvalidConfig)
	}

	return nil
}

// BuildMatcher compiles the configured rule lists into a matcher.
// A preset Matcher is returned unchanged.
func (c *CleaningConfig) BuildMatcher() (*PatternMatcher, error) {
	if c.Matcher != nil {
		return c.Matcher, nil
	}

	patterns := DefaultPatternConfig()
	source := SourceBuiltIn
	if c.Patterns != nil {
		patterns = *c.Patterns
		source = c.PatternSource
	}

	m, err := NewPatternMatcher(patterns, source)
	if err != nil {
		return nil, err
	}
	if err := m.AddIncludePatterns(c.Include, SourceCLI); err != nil {
		return nil, err
	}
	if err := m.AddExcludePatterns(c.Exclude, SourceCLI); err != nil {
		return nil, err
	}
	return m, nil
}
