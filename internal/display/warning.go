package display

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ideamans/go-artifact-cleaner/internal/safety"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related paths (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("⚠  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		b.WriteString("    ")
		if len(w.Files) == 1 {
			b.WriteString("Affected path:\n")
		} else {
			b.WriteString("Affected paths:\n")
		}

		for i, file := range w.Files {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, file))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	color.New(color.FgYellow).Fprint(out, b.String())
}

// WarnSafety converts a safety violation into a warning.
// Other errors are shown with their message as the title.
func WarnSafety(err error) Warning {
	var violation *safety.Violation
	if errors.As(err, &violation) {
		return Warning{
			Title:      "Refusing to clean " + violation.Path,
			Message:    violation.Reason,
			Suggestion: violation.Suggestion,
		}
	}
	return Warning{Title: err.Error()}
}

// WarnFailures lists paths that could not be scanned or removed
func WarnFailures(title string, failures []error) Warning {
	paths := make([]string, 0, len(failures))
	for _, f := range failures {
		paths = append(paths, f.Error())
	}
	return Warning{
		Title: title,
		Files: paths,
	}
}
