// Package display renders progress, warnings and run reports for the
// artifact-cleaner command line.
//
// Progress types implement cleaner.Progress and are safe for concurrent use,
// since scan and delete workers report from their own goroutines. Report
// printers write plain text to any io.Writer; color is applied through
// fatih/color and follows its NO_COLOR and TTY detection.
package display
