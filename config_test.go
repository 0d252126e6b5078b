package goartifactcleaner

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigConcurrencyDefaults tests the concurrency default settings
func TestConfigConcurrencyDefaults(t *testing.T) {
	tests := []struct {
		name                   string
		config                 CleaningConfig
		expectedWorkers        int
		expectedConcurrency    int
		expectedMaxConcurrency int
	}{
		{
			name:                   "All defaults",
			config:                 CleaningConfig{},
			expectedWorkers:        min(runtime.NumCPU(), 16),
			expectedConcurrency:    runtime.NumCPU(),
			expectedMaxConcurrency: 16,
		},
		{
			name: "Concurrency specified, under max",
			config: CleaningConfig{
				Concurrency: 2,
			},
			expectedWorkers:        2,
			expectedConcurrency:    2,
			expectedMaxConcurrency: 16,
		},
		{
			name: "Concurrency specified, over max",
			config: CleaningConfig{
				Concurrency: 32,
			},
			expectedWorkers:        16,
			expectedConcurrency:    32,
			expectedMaxConcurrency: 16,
		},
		{
			name: "Custom MaxConcurrency",
			config: CleaningConfig{
				Concurrency:    10,
				MaxConcurrency: 6,
			},
			expectedWorkers:        6,
			expectedConcurrency:    10,
			expectedMaxConcurrency: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.setDefaults()

			assert.Equal(t, tt.expectedWorkers, tt.config.ActualWorkerCount())
			assert.Equal(t, tt.expectedConcurrency, tt.config.Concurrency)
			assert.Equal(t, tt.expectedMaxConcurrency, tt.config.MaxConcurrency)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	config := CleaningConfig{}
	config.setDefaults()

	require.NotNil(t, config.MaxDepth)
	assert.Equal(t, DefaultMaxDepth, *config.MaxDepth)
	assert.False(t, config.FollowSymlinks)
	require.NotNil(t, config.Patterns)
	assert.Equal(t, BuiltinPatterns.DirectoryGlobs(), config.Patterns.Directories)
	assert.NotNil(t, config.DiskInfo)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		config      CleaningConfig
		shouldError bool
	}{
		{"valid", CleaningConfig{MaxDepth: Depth(3), Concurrency: 2}, false},
		{"zero depth", CleaningConfig{MaxDepth: Depth(0)}, false},
		{"negative depth", CleaningConfig{MaxDepth: Depth(-1)}, true},
		{"negative concurrency", CleaningConfig{Concurrency: -1}, true},
		{"negative max concurrency", CleaningConfig{MaxConcurrency: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validate()
			if tt.shouldError {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildMatcher(t *testing.T) {
	config := CleaningConfig{
		Patterns:      &PatternConfig{Directories: []string{"out"}},
		PatternSource: SourceConfig,
		Include:       []string{"*.tmp"},
		Exclude:       []string{"out"},
	}
	m, err := config.BuildMatcher()
	require.NoError(t, err)

	_, ok := m.Match("out", HintDir)
	assert.False(t, ok)
	result, ok := m.Match("a.tmp", HintFile)
	require.True(t, ok)
	assert.Equal(t, SourceCLI, result.Source)
	assert.Equal(t, SourceConfig, m.DirectoryRules()[0].Source)

	preset := DefaultPatternMatcher()
	config = CleaningConfig{Matcher: preset, Include: []string{"ignored"}}
	m, err = config.BuildMatcher()
	require.NoError(t, err)
	assert.Same(t, preset, m)
}
