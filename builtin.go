package goartifactcleaner

// BuiltinPattern is a glob shipped with the cleaner together with its category
type BuiltinPattern struct {
	Glob     string
	Category Category
}

// BuiltinPatternSet is the default rule set used when no configuration overrides it
type BuiltinPatternSet struct {
	Directories []BuiltinPattern
	Files       []BuiltinPattern
	Exclude     []string
}

// BuiltinPatterns holds the default directory, file and exclude rules
var BuiltinPatterns = BuiltinPatternSet{
	Directories: []BuiltinPattern{
		// Dependencies
		{"node_modules", CategoryDependencies},
		{"bower_components", CategoryDependencies},
		{".venv", CategoryDependencies},
		{"venv", CategoryDependencies},
		{"vendor", CategoryDependencies},
		{".pnpm-store", CategoryDependencies},

		// Build outputs
		{"dist", CategoryBuildOutputs},
		{"build", CategoryBuildOutputs},
		{"target", CategoryBuildOutputs},
		{"out", CategoryBuildOutputs},
		{".next", CategoryBuildOutputs},
		{".nuxt", CategoryBuildOutputs},
		{".output", CategoryBuildOutputs},
		{".svelte-kit", CategoryBuildOutputs},
		{"_build", CategoryBuildOutputs},

		// Caches
		{".turbo", CategoryCache},
		{".cache", CategoryCache},
		{".parcel-cache", CategoryCache},
		{".pytest_cache", CategoryCache},
		{".mypy_cache", CategoryCache},
		{".ruff_cache", CategoryCache},
		{"__pycache__", CategoryCache},
		{".gradle", CategoryCache},
		{"coverage", CategoryCache},
		{".nyc_output", CategoryCache},

		// IDE and tool metadata
		{".idea", CategoryIDE},
		{".vscode", CategoryIDE},
		{".vs", CategoryIDE},

		// Logs
		{"logs", CategoryLogs},
	},
	Files: []BuiltinPattern{
		{"*.log", CategoryLogs},
		{"npm-debug.log*", CategoryLogs},
		{"yarn-error.log*", CategoryLogs},
		{"*.pyc", CategoryCache},
		{"*.pyo", CategoryCache},
		{"*.tsbuildinfo", CategoryBuildOutputs},
		{".eslintcache", CategoryCache},
		{".DS_Store", CategoryOther},
		{"Thumbs.db", CategoryOther},
	},
	Exclude: []string{
		".git",
		".hg",
		".svn",
	},
}

// DirectoryGlobs returns the built-in directory globs in priority order
func (s BuiltinPatternSet) DirectoryGlobs() []string {
	return globs(s.Directories)
}

// FileGlobs returns the built-in file globs in priority order
func (s BuiltinPatternSet) FileGlobs() []string {
	return globs(s.Files)
}

// CategoryOf looks up the category of a glob by its exact text.
// Globs that are not part of the built-in set are CategoryOther.
func (s BuiltinPatternSet) CategoryOf(glob string) Category {
	for _, p := range s.Directories {
		if p.Glob == glob {
			return p.Category
		}
	}
	for _, p := range s.Files {
		if p.Glob == glob {
			return p.Category
		}
	}
	return CategoryOther
}

// DefaultPatternConfig returns the built-in rules as a PatternConfig
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		Directories: BuiltinPatterns.DirectoryGlobs(),
		Files:       BuiltinPatterns.FileGlobs(),
		Exclude:     append([]string(nil), BuiltinPatterns.Exclude...),
	}
}

func globs(patterns []BuiltinPattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = p.Glob
	}
	return out
}
