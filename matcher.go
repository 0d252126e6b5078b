package goartifactcleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// PatternConfig holds raw glob strings partitioned by what they may match
type PatternConfig struct {
	Directories []string `yaml:"directories" json:"directories"`
	Files       []string `yaml:"files" json:"files"`
	Exclude     []string `yaml:"exclude" json:"exclude"`
}

// PatternRule is a compiled glob with its precedence and provenance
type PatternRule struct {
	Pattern  string
	Priority int
	Category Category
	Source   PatternSource
	glob     glob.Glob
}

func (r *PatternRule) result() MatchResult {
	return MatchResult{
		Pattern:  r.Pattern,
		Priority: r.Priority,
		Source:   r.Source,
		Category: r.Category,
	}
}

// PatternMatcher evaluates entry names against compiled rules.
//
// A PatternMatcher performs no I/O in Match and is safe for concurrent use
// once construction and any Add* calls have finished.
type PatternMatcher struct {
	directories []*PatternRule
	files       []*PatternRule
	exclude     []*PatternRule
}

// NewPatternMatcher compiles the given pattern lists.
// All rules are tagged with source. Any invalid glob fails construction.
func NewPatternMatcher(config PatternConfig, source PatternSource) (*PatternMatcher, error) {
	m := &PatternMatcher{}
	var err error

	if m.directories, err = compileRules(config.Directories, 0, source); err != nil {
		return nil, err
	}
	if m.files, err = compileRules(config.Files, 0, source); err != nil {
		return nil, err
	}
	if m.exclude, err = compileRules(config.Exclude, 0, source); err != nil {
		return nil, err
	}
	return m, nil
}

// DefaultPatternMatcher compiles the built-in rule set
func DefaultPatternMatcher() *PatternMatcher {
	m, err := NewPatternMatcher(DefaultPatternConfig(), SourceBuiltIn)
	if err != nil {
		panic(fmt.Sprintf("built-in patterns do not compile: %v", err))
	}
	return m
}

func compileRules(patterns []string, offset int, source PatternSource) ([]*PatternRule, error) {
	rules := make([]*PatternRule, 0, len(patterns))
	for i, p := range patterns {
		rule, err := compileRule(p, offset+i, source)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func compileRule(pattern string, priority int, source PatternSource) (*PatternRule, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	return &PatternRule{
		Pattern:  pattern,
		Priority: priority,
		Category: BuiltinPatterns.CategoryOf(pattern),
		Source:   source,
		glob:     g,
	}, nil
}

// Match evaluates a base name.
//
// Exclusions are checked first and always win. Directory rules are consulted
// for directories, symlinks and unknown entries; file rules for files,
// symlinks and unknown entries. Directory rules take precedence on ties.
func (m *PatternMatcher) Match(name string, hint FileTypeHint) (MatchResult, bool) {
	if name == "" {
		return MatchResult{}, false
	}
	if m.IsExcluded(name) {
		return MatchResult{}, false
	}

	checkDirs := hint != HintFile
	checkFiles := hint != HintDir

	if checkDirs {
		if r := firstMatch(m.directories, name); r != nil {
			return r.result(), true
		}
	}
	if checkFiles {
		if r := firstMatch(m.files, name); r != nil {
			return r.result(), true
		}
	}
	return MatchResult{}, false
}

// MatchPath evaluates the base name of path, using lstat to derive the hint.
// An entry whose metadata cannot be read is evaluated with HintUnknown.
func (m *PatternMatcher) MatchPath(path string) (MatchResult, bool) {
	hint := HintUnknown
	if info, err := os.Lstat(path); err == nil {
		hint = hintFromMode(info.Mode())
	}
	return m.Match(filepath.Base(path), hint)
}

// IsExcluded reports whether name matches an exclude rule
func (m *PatternMatcher) IsExcluded(name string) bool {
	return firstMatch(m.exclude, name) != nil
}

// AddIncludePatterns appends rules after the existing ones.
// Patterns containing '.' or '*' are treated as file patterns, the rest as
// directory patterns. Nothing is added when any pattern is invalid.
func (m *PatternMatcher) AddIncludePatterns(patterns []string, source PatternSource) error {
	var dirs, files []*PatternRule
	for _, p := range patterns {
		if IsFilePattern(p) {
			rule, err := compileRule(p, len(m.files)+len(files), source)
			if err != nil {
				return err
			}
			files = append(files, rule)
		} else {
			rule, err := compileRule(p, len(m.directories)+len(dirs), source)
			if err != nil {
				return err
			}
			dirs = append(dirs, rule)
		}
	}
	m.directories = append(m.directories, dirs...)
	m.files = append(m.files, files...)
	return nil
}

// AddExcludePatterns appends exclude rules
func (m *PatternMatcher) AddExcludePatterns(patterns []string, source PatternSource) error {
	rules, err := compileRules(patterns, len(m.exclude), source)
	if err != nil {
		return err
	}
	m.exclude = append(m.exclude, rules...)
	return nil
}

// DirectoryRules returns the directory rules in priority order
func (m *PatternMatcher) DirectoryRules() []PatternRule { return copyRules(m.directories) }

// FileRules returns the file rules in priority order
func (m *PatternMatcher) FileRules() []PatternRule { return copyRules(m.files) }

// ExcludeRules returns the exclude rules
func (m *PatternMatcher) ExcludeRules() []PatternRule { return copyRules(m.exclude) }

// IsFilePattern reports whether an include pattern targets files
func IsFilePattern(pattern string) bool {
	return strings.ContainsAny(pattern, ".*")
}

func firstMatch(rules []*PatternRule, name string) *PatternRule {
	for _, r := range rules {
		if r.glob.Match(name) {
			return r
		}
	}
	return nil
}

func copyRules(rules []*PatternRule) []PatternRule {
	out := make([]PatternRule, len(rules))
	for i, r := range rules {
		out[i] = *r
	}
	return out
}

func hintFromMode(mode os.FileMode) FileTypeHint {
	switch {
	case mode&os.ModeSymlink != 0:
		return HintSymlink
	case mode.IsDir():
		return HintDir
	case mode.IsRegular():
		return HintFile
	default:
		return HintUnknown
	}
}
