package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	cleaner "github.com/ideamans/go-artifact-cleaner"
	"github.com/ideamans/go-artifact-cleaner/internal/config"
	"github.com/ideamans/go-artifact-cleaner/internal/display"
	"github.com/ideamans/go-artifact-cleaner/internal/filelock"
	"github.com/ideamans/go-artifact-cleaner/internal/logger"
	"github.com/ideamans/go-artifact-cleaner/internal/safety"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// ErrNoConfirmation is returned when a clean needs confirmation but stdin
// cannot provide it
var ErrNoConfirmation = errors.New("stdin is not a terminal; pass --yes to clean without confirmation")

// cleanOptions holds the flag values of the root command and its subcommands
type cleanOptions struct {
	// Persistent flags
	configPath     string
	exclude        []string
	include        []string
	preserveEnv    bool
	parallel       int
	maxDepth       int
	followSymlinks bool

	// Root command flags
	dryRun     bool
	quiet      bool
	verbose    bool
	yes        bool
	stats      bool
	jsonOutput bool
	noGitCheck bool
	logLevel   string
}

// NewRootCommand creates and returns the root cobra command for artifact-cleaner
func NewRootCommand() *cobra.Command {
	opts := &cleanOptions{}

	cmd := &cobra.Command{
		Use:   "artifact-cleaner [path]",
		Short: "Parallel cleaner for build artifacts and dependency directories",
		Long: `artifact-cleaner removes regenerable build artifacts such as node_modules,
target, dist, __pycache__ and *.pyc from a directory tree.

The tree is scanned in parallel, matches nested inside other matches are
pruned, and the remaining items are deleted in parallel. Nothing is deleted
without confirmation unless --yes is given.

Configuration is loaded from the nearest .artifact-cleaner.yaml, then from
the user configuration directory. CLI flags override configuration values.

Examples:
  artifact-cleaner --dry-run ~/src          # Show what would be removed
  artifact-cleaner -y -e vendor .           # Clean without prompting, keep vendor
  artifact-cleaner -i '*.bak' --stats .     # Also remove *.bak, show details
  artifact-cleaner list --json .            # Print candidates as JSON`,
		Version: Version,
		Args:    cobra.MaximumNArgs(1),
		// main prints the error; usage is not repeated
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, rootPath(args), opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: nearest "+config.ProjectFileName+")")
	pf.StringArrayVarP(&opts.exclude, "exclude", "e", nil, "Pattern to keep, may be repeated")
	pf.StringArrayVarP(&opts.include, "include", "i", nil, "Additional pattern to clean, may be repeated")
	pf.BoolVar(&opts.preserveEnv, "preserve-env", false, "Never delete .env files")
	pf.IntVarP(&opts.parallel, "parallel", "p", 0, "Number of worker threads (default: from config)")
	pf.IntVar(&opts.maxDepth, "max-depth", 0, "Maximum directory depth to scan (default: from config)")
	pf.BoolVar(&opts.followSymlinks, "follow-symlinks", false, "Follow symbolic links while scanning")

	f := cmd.Flags()
	f.BoolVarP(&opts.dryRun, "dry-run", "n", false, "Show what would be deleted without deleting anything")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Only print errors")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every removed item")
	f.BoolVarP(&opts.yes, "yes", "y", false, "Do not ask for confirmation")
	f.BoolVarP(&opts.stats, "stats", "s", false, "Print the report with failure details")
	f.BoolVar(&opts.jsonOutput, "json", false, "Print the report as JSON")
	f.BoolVar(&opts.noGitCheck, "no-git-check", false, "Allow cleaning inside a git repository")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newConfigCommand(opts))

	return cmd
}

func rootPath(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// loadConfig resolves the configuration file and applies the flags that were set
func loadConfig(cmd *cobra.Command, opts *cleanOptions) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.Load(opts.configPath, wd)
	if err != nil {
		return nil, err
	}

	cfg.MergeCLIArgs(opts.exclude, opts.include, opts.preserveEnv)

	flags := cmd.Flags()
	var parallel, maxDepth *int
	var followSymlinks, checkGitRepo *bool
	var logLevel *string
	if flags.Changed("parallel") {
		parallel = &opts.parallel
	}
	if flags.Changed("max-depth") {
		maxDepth = &opts.maxDepth
	}
	if flags.Changed("follow-symlinks") {
		followSymlinks = &opts.followSymlinks
	}
	if opts.noGitCheck {
		disabled := false
		checkGitRepo = &disabled
	}
	if flags.Changed("log-level") {
		logLevel = &opts.logLevel
	}
	cfg.MergeWithFlags(parallel, maxDepth, followSymlinks, checkGitRepo, logLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// effectiveLogLevel applies --verbose and --quiet on top of the configured level
func effectiveLogLevel(cfg *config.Config, opts *cleanOptions) string {
	switch {
	case opts.logLevel != "":
		return opts.logLevel
	case opts.verbose:
		return "debug"
	case opts.quiet:
		return "error"
	default:
		return cfg.Options.LogLevel
	}
}

// runClean implements the root command: scan, summarize, confirm, clean, report
func runClean(cmd *cobra.Command, path string, opts *cleanOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	showProgress := !opts.quiet && !opts.jsonOutput
	enableColor := !color.NoColor

	log := logger.NewConsoleLogger(errOut, effectiveLogLevel(cfg, opts))

	cc := cfg.CleaningConfig()
	cc.DryRun = opts.dryRun
	cc.Guard = safety.NewGuard(cfg.Safety.CheckGitRepo, cfg.MinFreeSpaceBytes())
	cc.Categories = cleaner.NewCategoryTracker()
	cc.Callbacks = log.Callbacks()
	if showProgress {
		cc.ScanStats = &cleaner.ScanStats{}
		status := display.NewScanStatus(errOut, cc.ScanStats, enableColor)
		status.Start()
		cc.ScanProgress = status
	}

	plan, err := cleaner.Prepare(path, cc)
	if err != nil {
		if cc.ScanProgress != nil {
			cc.ScanProgress.Finish()
		}
		if errors.Is(err, cleaner.ErrSafetyViolation) {
			// A refused root is not a failure of the tool
			if !opts.quiet {
				display.WarnSafety(err).Display(errOut)
			}
			return nil
		}
		return err
	}

	if plan.Empty() && !opts.jsonOutput {
		if !opts.quiet {
			fmt.Fprintln(out, "\nNo files to clean!")
		}
		return nil
	}

	if !opts.quiet && !opts.jsonOutput {
		fmt.Fprintln(out)
		display.PrintScanSummary(out, display.ScanSummary{
			EntriesScanned: plan.EntriesScanned,
			Duration:       plan.ScanDuration,
			Items:          plan.Items,
			Categories:     cc.Categories,
		})
		if opts.verbose && len(plan.ScanFailures) > 0 {
			failures := make([]error, len(plan.ScanFailures))
			for i, f := range plan.ScanFailures {
				failures[i] = f
			}
			display.WarnFailures("Some paths could not be scanned", failures).Display(errOut)
		}
	}

	if !plan.Empty() && !opts.dryRun && !opts.yes && cfg.Options.RequireConfirmation {
		ok, err := confirm(cmd.InOrStdin(), out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cleaning cancelled")
			return nil
		}
	}

	if !opts.dryRun {
		lock, err := filelock.AcquireRunLock(plan.Root)
		if err != nil {
			return err
		}
		defer lock.Unlock()
	}

	if showProgress {
		bar := display.NewBar(errOut, len(plan.Items), enableColor)
		bar.SetMessage(fmt.Sprintf("Cleaning (%d workers)", plan.Workers()))
		plan.WithCleanProgress(bar)
	}

	report, err := plan.Execute()
	if err != nil {
		return err
	}

	switch {
	case opts.jsonOutput:
		return display.PrintJSON(out, report)
	case !opts.quiet || opts.stats:
		display.PrintReport(out, report, opts.stats)
	}
	return nil
}

// confirm asks whether to proceed. Only "y" or "yes" confirms.
// A stdin that is a file but not a terminal cannot answer.
func confirm(in io.Reader, out io.Writer) (bool, error) {
	if f, ok := in.(*os.File); ok {
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			return false, ErrNoConfirmation
		}
	}

	fmt.Fprint(out, "\nProceed with cleaning? [y/N]: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
