// Package config loads and saves the YAML configuration of the cleaner CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	cleaner "github.com/ideamans/go-artifact-cleaner"
	"github.com/ideamans/go-artifact-cleaner/internal/logger"
)

const (
	// ProjectFileName is searched for in the working directory and its parents
	ProjectFileName = ".artifact-cleaner.yaml"

	appName        = "artifact-cleaner"
	globalFileName = "config.yaml"
)

// envFiles are excluded when --preserve-env is given
var envFiles = []string{".env", ".env.example"}

// OptionsConfig holds run options
type OptionsConfig struct {
	ParallelThreads     int    `yaml:"parallel_threads"`
	RequireConfirmation bool   `yaml:"require_confirmation"`
	ShowStatistics      bool   `yaml:"show_statistics"`
	FollowSymlinks      bool   `yaml:"follow_symlinks"`
	LogLevel            string `yaml:"log_level"`
}

// SafetyConfig holds the checks run before anything is scanned
type SafetyConfig struct {
	CheckGitRepo   bool    `yaml:"check_git_repo"`
	MaxDepth       int     `yaml:"max_depth"`
	MinFreeSpaceGB float64 `yaml:"min_free_space_gb"`
}

// Config represents the cleaner configuration file
type Config struct {
	Patterns cleaner.PatternConfig `yaml:"patterns"`
	Options  OptionsConfig         `yaml:"options"`
	Safety   SafetyConfig          `yaml:"safety"`

	// Path is the file the configuration was read from, empty for defaults
	Path string `yaml:"-"`

	// Patterns given on the command line, kept apart so they are tagged as such
	include []string
	exclude []string
}

// DefaultConfig returns a Config with the built-in patterns and default options
func DefaultConfig() *Config {
	return &Config{
		Patterns: cleaner.DefaultPatternConfig(),
		Options: OptionsConfig{
			ParallelThreads:     runtime.NumCPU(),
			RequireConfirmation: true,
			ShowStatistics:      true,
			FollowSymlinks:      false,
			LogLevel:            "warn",
		},
		Safety: SafetyConfig{
			CheckGitRepo:   true,
			MaxDepth:       cleaner.DefaultMaxDepth,
			MinFreeSpaceGB: 1.0,
		},
	}
}

// LoadConfig loads configuration from a YAML file.
// Values missing from the file keep their defaults. A missing file yields
// the defaults, a malformed one an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Path = path

	return cfg, nil
}

// Load resolves the configuration for a run.
// An explicit path wins; otherwise the nearest project file above dir is used,
// then the global file, then the defaults.
func Load(explicit, dir string) (*Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file %s: %w", explicit, err)
		}
		return LoadConfig(explicit)
	}

	if path, ok := FindProjectConfig(dir); ok {
		return LoadConfig(path)
	}

	if path, err := GlobalConfigPath(); err == nil {
		return LoadConfig(path)
	}

	return DefaultConfig(), nil
}

// FindProjectConfig searches dir and its ancestors for the project file
func FindProjectConfig(dir string) (string, bool) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(current, ProjectFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// GlobalConfigPath returns the per-user configuration file path
func GlobalConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, globalFileName), nil
}

// MergeCLIArgs adds command-line patterns.
// Include patterns containing '.' or '*' are file patterns, the rest
// directory patterns. preserveEnv excludes .env files.
func (c *Config) MergeCLIArgs(exclude, include []string, preserveEnv bool) {
	for _, p := range exclude {
		c.exclude = appendUnique(c.exclude, p)
	}
	for _, p := range include {
		c.include = appendUnique(c.include, p)
	}
	if preserveEnv {
		for _, p := range envFiles {
			c.exclude = appendUnique(c.exclude, p)
		}
	}
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(parallel *int, maxDepth *int, followSymlinks *bool, checkGitRepo *bool, logLevel *string) {
	if parallel != nil {
		c.Options.ParallelThreads = *parallel
	}
	if maxDepth != nil {
		c.Safety.MaxDepth = *maxDepth
	}
	if followSymlinks != nil {
		c.Options.FollowSymlinks = *followSymlinks
	}
	if checkGitRepo != nil {
		c.Safety.CheckGitRepo = *checkGitRepo
	}
	if logLevel != nil {
		c.Options.LogLevel = *logLevel
	}
}

// Validate checks the configuration, including that every pattern compiles
func (c *Config) Validate() error {
	if c.Options.ParallelThreads < 0 {
		return fmt.Errorf("%w: parallel_threads must not be negative, got %d", cleaner.ErrInvalidConfig, c.Options.ParallelThreads)
	}
	if c.Safety.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth must not be negative, got %d", cleaner.ErrInvalidConfig, c.Safety.MaxDepth)
	}
	if c.Safety.MinFreeSpaceGB < 0 {
		return fmt.Errorf("%w: min_free_space_gb must not be negative", cleaner.ErrInvalidConfig)
	}
	if c.Options.LogLevel != "" && !logger.ValidLevel(c.Options.LogLevel) {
		return fmt.Errorf("%w: unknown log_level %q", cleaner.ErrInvalidConfig, c.Options.LogLevel)
	}

	cc := c.CleaningConfig()
	if _, err := cc.BuildMatcher(); err != nil {
		return err
	}
	return nil
}

// PatternSource reports how the configured patterns should be tagged
func (c *Config) PatternSource() cleaner.PatternSource {
	if c.Path == "" {
		return cleaner.SourceBuiltIn
	}
	return cleaner.SourceConfig
}

// CleaningConfig converts the file configuration into library options.
// Callbacks, progress sinks and the guard are left for the caller.
func (c *Config) CleaningConfig() cleaner.CleaningConfig {
	patterns := c.Patterns
	cc := cleaner.CleaningConfig{
		Patterns:       &patterns,
		PatternSource:  c.PatternSource(),
		Include:        append([]string(nil), c.include...),
		Exclude:        append([]string(nil), c.exclude...),
		MaxDepth:       cleaner.Depth(c.Safety.MaxDepth),
		FollowSymlinks: c.Options.FollowSymlinks,
		Concurrency:    c.Options.ParallelThreads,
	}
	if c.Options.ParallelThreads > 0 {
		// An explicit thread count is not capped
		cc.MaxConcurrency = c.Options.ParallelThreads
	}
	return cc
}

// MinFreeSpaceBytes returns the free space threshold in bytes
func (c *Config) MinFreeSpaceBytes() uint64 {
	return uint64(c.Safety.MinFreeSpaceGB * 1024 * 1024 * 1024)
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path under a file lock.
// Existing files are only replaced when force is set.
func (c *Config) Save(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	header := []byte("# artifact-cleaner configuration\n")
	return writeConfigFile(path, append(header, data...))
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
