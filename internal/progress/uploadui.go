package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// UploadUI manages one progress bar per uploaded file using mpb.
type UploadUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool
	totalFiles int
	started    int32
}

// FileBar is the progress bar of a single file. It implements Reporter so
// it can be handed straight to the dashboard client.
type FileBar struct {
	ui        *UploadUI
	bar       *mpb.Bar
	index     int
	localPath string
	size      int64
	current   int64
	startTime time.Time
}

// NewUploadUI creates a new upload UI for totalFiles files.
func NewUploadUI(totalFiles int) *UploadUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		enableANSI(os.Stderr)
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		// Non-TTY: disable progress bars, just use text output
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &UploadUI{
		progress:   p,
		out:        os.Stdout,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// AddFile creates the bar for localPath. Bars are numbered in call order.
func (u *UploadUI) AddFile(localPath string) *FileBar {
	return &FileBar{
		ui:        u,
		index:     int(atomic.AddInt32(&u.started, 1)),
		localPath: localPath,
		startTime: time.Now(),
	}
}

// Start creates the underlying bar once the size is known.
func (f *FileBar) Start(total int64, description string) {
	f.size = total
	f.startTime = time.Now()
	label := fmt.Sprintf("[%d/%d] %s", f.index, f.ui.totalFiles, truncatePath(f.localPath, 2))

	if !f.ui.isTerminal {
		fmt.Fprintf(f.ui.out, "Uploading %s (%.1f MiB)\n", label, float64(total)/(1024*1024))
		return
	}

	f.bar = f.ui.progress.New(total,
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(label, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
			decor.Name("  "),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.BarRemoveOnComplete(),
	)
}

// Update moves the bar to current bytes.
func (f *FileBar) Update(current int64) {
	f.current = current
	if f.bar != nil {
		f.bar.SetCurrent(current)
	}
}

// Finish marks the file as uploaded and prints a summary line.
func (f *FileBar) Finish() {
	elapsed := time.Since(f.startTime)
	if f.bar != nil {
		f.bar.SetCurrent(f.size)
		f.bar.SetTotal(f.size, true)
	}

	speed := 0.0
	if elapsed > 0 {
		speed = float64(f.size) / elapsed.Seconds() / (1024 * 1024)
	}
	f.ui.print(fmt.Sprintf("✓ %s (%.1f MiB, %s, %.1f MiB/s)\n",
		truncatePath(f.localPath, 2),
		float64(f.size)/(1024*1024),
		elapsed.Round(time.Second),
		speed))
}

// Error keeps the bar visible and prints the failure.
func (f *FileBar) Error(err error) {
	if f.bar != nil {
		f.bar.Abort(false)
	}
	f.ui.print(fmt.Sprintf("✗ %s: %v\n", truncatePath(f.localPath, 2), err))
}

// SetDescription is a no-op; the label is fixed per file.
func (f *FileBar) SetDescription(desc string) {}

// Wait blocks until all progress bars complete.
func (u *UploadUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns an io.Writer that prints above the progress bars.
func (u *UploadUI) Writer() io.Writer {
	if u.progress != nil && u.isTerminal {
		return u.progress
	}
	return os.Stderr
}

// print writes through mpb when bars are live to avoid corrupting them.
func (u *UploadUI) print(msg string) {
	if u.isTerminal && u.progress != nil {
		u.progress.Write([]byte(msg))
		return
	}
	fmt.Fprint(u.out, msg)
}

// truncatePath truncates a file path to show only the last N components
// Example: truncatePath("/a/b/c/d/file.txt", 3) → "…/c/d/file.txt"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	relevant := parts[len(parts)-maxComponents:]
	return "…/" + strings.Join(relevant, "/")
}
