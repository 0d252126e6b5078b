package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	cleaner "github.com/ideamans/go-artifact-cleaner"
)

// renderInterval limits how often a progress line is redrawn
const renderInterval = 100 * time.Millisecond

// Bar is an ASCII progress bar for a known number of items
type Bar struct {
	out         io.Writer
	current     int
	total       int
	width       int
	enableColor bool
	message     string
	lastRender  time.Time
	finished    bool
	mu          sync.Mutex
}

var _ cleaner.Progress = (*Bar)(nil)

// NewBar creates a progress bar writing to out
func NewBar(out io.Writer, total int, enableColor bool) *Bar {
	return &Bar{
		out:         out,
		total:       total,
		width:       30,
		enableColor: enableColor,
	}
}

// Increment advances the bar by n
func (b *Bar) Increment(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current += n
	b.drawLocked(false)
}

// SetMessage sets the text shown after the counter
func (b *Bar) SetMessage(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.message = msg
	b.drawLocked(false)
}

// Finish draws the final state and ends the line. Later calls do nothing.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return
	}
	b.finished = true
	b.drawLocked(true)
	if b.out != nil {
		fmt.Fprintln(b.out)
	}
}

// Current returns the number of completed items
func (b *Bar) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Render returns the bar as a string: [=====     ] 5/10 (50%)
func (b *Bar) Render() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.renderLocked()
}

func (b *Bar) renderLocked() string {
	perc := percentage(b.current, b.total)
	filled := (perc * b.width) / 100

	var bar strings.Builder
	bar.WriteString("[")
	bar.WriteString(strings.Repeat("=", filled))
	bar.WriteString(strings.Repeat(" ", b.width-filled))
	bar.WriteString("]")

	result := fmt.Sprintf("%s %d/%d (%d%%)", bar.String(), b.current, b.total, perc)
	if b.enableColor {
		if perc < 100 {
			result = color.New(color.FgCyan).Sprint(result)
		} else {
			result = color.New(color.FgGreen).Sprint(result)
		}
	}
	if b.message != "" {
		result += " " + b.message
	}
	return result
}

func (b *Bar) drawLocked(force bool) {
	if b.out == nil || b.finished && !force {
		return
	}
	now := time.Now()
	if !force && now.Sub(b.lastRender) < renderInterval {
		return
	}
	b.lastRender = now
	fmt.Fprintf(b.out, "\r\033[K%s", b.renderLocked())
}

func percentage(current, total int) int {
	if total <= 0 {
		return 0
	}
	perc := (current * 100) / total
	if perc > 100 {
		perc = 100
	}
	if perc < 0 {
		perc = 0
	}
	return perc
}

// ScanStatus is a single status line for the scan phase, where the total is
// unknown. It reads live counters from cleaner.ScanStats.
type ScanStatus struct {
	out         io.Writer
	stats       *cleaner.ScanStats
	enableColor bool
	message     string
	lastRender  time.Time
	finished    bool
	stop        chan struct{}
	done        chan struct{}
	mu          sync.Mutex
}

var _ cleaner.Progress = (*ScanStatus)(nil)

// NewScanStatus creates a status line fed by stats
func NewScanStatus(out io.Writer, stats *cleaner.ScanStats, enableColor bool) *ScanStatus {
	return &ScanStatus{
		out:         out,
		stats:       stats,
		enableColor: enableColor,
	}
}

// Start redraws the line periodically until Finish.
// Without it the line only changes when a candidate is found.
func (s *ScanStatus) Start() {
	s.mu.Lock()
	if s.stop != nil || s.finished {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(renderInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				s.drawLocked(true)
				s.mu.Unlock()
			}
		}
	}()
}

// Increment redraws the line; counts come from the shared stats
func (s *ScanStatus) Increment(int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawLocked(false)
}

// SetMessage sets the text shown at the end of the line
func (s *ScanStatus) SetMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

// Finish stops the ticker, clears the status line and marks it finished
func (s *ScanStatus) Finish() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	stop, done := s.stop, s.done
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	if s.out != nil {
		fmt.Fprint(s.out, "\r\033[K")
	}
}

// Render returns the current status line
func (s *ScanStatus) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked()
}

func (s *ScanStatus) renderLocked() string {
	var entries, dirs, files, matched, bytes int64
	if s.stats != nil {
		entries = s.stats.Entries.Load()
		dirs = s.stats.Dirs.Load()
		files = s.stats.Files.Load()
		matched = s.stats.Matched.Load()
		bytes = s.stats.MatchedBytes.Load()
	}

	line := fmt.Sprintf("Scanning: %s entries (%s dirs, %s files) • %s found • %s",
		humanize.Comma(entries), humanize.Comma(dirs), humanize.Comma(files),
		humanize.Comma(matched), humanize.IBytes(uint64(bytes)))
	if s.enableColor {
		line = color.New(color.FgCyan).Sprint(line)
	}
	if s.message != "" {
		line += " " + s.message
	}
	return line
}

func (s *ScanStatus) drawLocked(force bool) {
	if s.out == nil || s.finished {
		return
	}
	now := time.Now()
	if !force && now.Sub(s.lastRender) < renderInterval {
		return
	}
	s.lastRender = now
	fmt.Fprintf(s.out, "\r\033[K%s", s.renderLocked())
}
