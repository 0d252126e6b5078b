package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	cleaner "github.com/ideamans/go-artifact-cleaner"
)

var (
	green  = color.New(color.FgGreen)
	cyan   = color.New(color.FgCyan)
	yellow = color.New(color.FgYellow)
	dim    = color.New(color.FgHiBlack)
)

// Size renders a byte count the way every report line does
func Size(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatBreakdown renders the non-empty categories of t, e.g.
// "Dependencies: 3 (1.2 GiB)  Build: 2 (40 MiB)"
func FormatBreakdown(t *cleaner.CategoryTracker) string {
	if t == nil {
		return ""
	}
	var parts []string
	for _, c := range cleaner.Categories {
		count := t.Count(c)
		if count == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d (%s)", c.Label(), count, Size(t.Size(c))))
	}
	return strings.Join(parts, "  ")
}

// ScanSummary is what the scan phase reports before any deletion
type ScanSummary struct {
	EntriesScanned int
	Duration       time.Duration
	Items          []cleaner.CandidateItem
	Categories     *cleaner.CategoryTracker
}

// PrintScanSummary writes the scan totals and the category breakdown
func PrintScanSummary(w io.Writer, s ScanSummary) {
	rate := 0.0
	if s.Duration > 0 {
		rate = float64(s.EntriesScanned) / s.Duration.Seconds()
	}
	fmt.Fprintf(w, "Scanned %s entries in %.2fs (%s/s)\n",
		humanize.Comma(int64(s.EntriesScanned)), s.Duration.Seconds(), humanize.Comma(int64(rate)))

	dirs, files := cleaner.CountByType(s.Items)
	fmt.Fprintf(w, "Found %d items (%d dirs, %d files) • %s\n",
		len(s.Items), dirs, files, cyan.Sprint(Size(cleaner.TotalSize(s.Items))))

	if breakdown := FormatBreakdown(s.Categories); breakdown != "" {
		fmt.Fprintf(w, "  %s\n", dim.Sprint(breakdown))
	}
}

// PrintReport writes the final summary of a run.
// With showStats the individual failures are listed as well.
func PrintReport(w io.Writer, r cleaner.CleanReport, showStats bool) {
	fmt.Fprintln(w)
	if r.DryRun {
		green.Fprintf(w, "✓ %d items (%d dirs, %d files)\n", r.ItemsDeleted, r.DirsDeleted, r.FilesDeleted)
		green.Fprintf(w, "✓ %s would be freed\n", Size(r.BytesFreed))
	} else {
		green.Fprintf(w, "✓ Cleaned %d items (%d dirs, %d files)\n", r.ItemsDeleted, r.DirsDeleted, r.FilesDeleted)
		green.Fprintf(w, "✓ Freed %s\n", Size(r.BytesFreed))
		fmt.Fprintf(w, "⏱ Scan: %.2fs • Clean: %.2fs • Total: %.2fs\n",
			r.ScanDuration.Seconds(), r.CleanDuration.Seconds(), r.TotalDuration.Seconds())
		if r.CleanDuration > 0 {
			fmt.Fprintf(w, "  ↳ %s/s • %.0f items/s\n",
				Size(int64(r.BytesPerSecond())), r.ItemsPerSecond())
		}
	}

	if r.HasFailures() {
		yellow.Fprintf(w, "⚠ %d errors occurred\n", r.FailureCount())
		if showStats {
			for _, f := range r.ScanFailures {
				fmt.Fprintf(w, "    %s\n", f.Error())
			}
			for _, f := range r.Failures {
				fmt.Fprintf(w, "    %s\n", f.Error())
			}
		}
	}

	fmt.Fprintln(w)
	if r.DryRun {
		fmt.Fprintln(w, "Dry run complete!")
	} else {
		green.Fprintln(w, "Done!")
	}
}

// PrintItems writes one "path (size)" line per item
func PrintItems(w io.Writer, items []cleaner.CandidateItem) {
	for _, item := range items {
		fmt.Fprintf(w, "%s (%s)\n", item.Path, Size(item.Size))
	}
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
