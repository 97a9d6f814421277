// Package progress provides a unified interface for transfer progress
// across CLI (progress bars) and tray (menu label) modes.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter is the interface for reporting progress in both CLI and tray modes.
// total is -1 when the size is unknown.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
	SetDescription(desc string)
}

// CLIProgress implements progress reporting for CLI mode using a progress bar.
type CLIProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a new CLI progress reporter writing to stderr.
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{out: os.Stderr}
}

// Start initializes the progress bar with total size and description.
func (p *CLIProgress) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update updates the progress bar to the current position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error displays an error message.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(p.out, "\nError: %v\n", err)
	}
}

// SetDescription updates the progress bar description.
func (p *CLIProgress) SetDescription(desc string) {
	if p.bar != nil {
		p.bar.Describe(desc)
	}
}

// FuncProgress reports progress as a fraction to a callback, throttled to
// at most one call per interval. The tray uses it to update a menu label.
// A fraction of -1 means the transfer ended (finished or failed).
type FuncProgress struct {
	mu       sync.Mutex
	fn       func(desc string, fraction float64)
	interval time.Duration
	desc     string
	total    int64
	last     time.Time
}

// NewFuncProgress creates a callback reporter.
func NewFuncProgress(interval time.Duration, fn func(desc string, fraction float64)) *FuncProgress {
	return &FuncProgress{fn: fn, interval: interval}
}

// Start records the total and reports 0.
func (p *FuncProgress) Start(total int64, description string) {
	p.mu.Lock()
	p.total = total
	p.desc = description
	p.last = time.Now()
	p.mu.Unlock()
	p.fn(description, 0)
}

// Update reports current/total when the throttle interval has passed.
// Unknown totals are not reported.
func (p *FuncProgress) Update(current int64) {
	p.mu.Lock()
	if p.total <= 0 || time.Since(p.last) < p.interval {
		p.mu.Unlock()
		return
	}
	p.last = time.Now()
	desc, fraction := p.desc, float64(current)/float64(p.total)
	p.mu.Unlock()

	if fraction > 1 {
		fraction = 1
	}
	p.fn(desc, fraction)
}

// Finish reports -1, clearing the indicator.
func (p *FuncProgress) Finish() {
	p.mu.Lock()
	desc := p.desc
	p.mu.Unlock()
	p.fn(desc, -1)
}

// Error reports -1, clearing the indicator.
func (p *FuncProgress) Error(err error) {
	p.Finish()
}

// SetDescription changes the label passed to the callback.
func (p *FuncProgress) SetDescription(desc string) {
	p.mu.Lock()
	p.desc = desc
	p.mu.Unlock()
}

// NoOpProgress is a progress reporter that does nothing (for background/silent operations).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

// Start does nothing.
func (p *NoOpProgress) Start(total int64, description string) {}

// Update does nothing.
func (p *NoOpProgress) Update(current int64) {}

// Finish does nothing.
func (p *NoOpProgress) Finish() {}

// Error does nothing.
func (p *NoOpProgress) Error(err error) {}

// SetDescription does nothing.
func (p *NoOpProgress) SetDescription(desc string) {}

// ProgressReader wraps an io.Reader to report progress.
type ProgressReader struct {
	reader   io.Reader
	reporter Reporter
	current  int64
}

// NewProgressReader creates a new progress-reporting reader.
func NewProgressReader(reader io.Reader, reporter Reporter) *ProgressReader {
	return &ProgressReader{
		reader:   reader,
		reporter: reporter,
	}
}

// Read implements io.Reader interface with progress reporting.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.current += int64(n)
		pr.reporter.Update(pr.current)
	}
	return n, err
}

// Current returns the number of bytes read so far.
func (pr *ProgressReader) Current() int64 {
	return pr.current
}
