// Package browser hosts the dashboard's login form and file listing in a
// headed Chrome window driven over the DevTools protocol.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/bubblecloud/bubblecloud-tray/internal/constants"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
)

var (
	// ErrWindowClosed is returned when the user closes a window before it
	// produced a result.
	ErrWindowClosed = errors.New("window closed")

	// ErrWindowOpen is returned when another browser window is already
	// showing. Chrome cannot share a profile directory between processes.
	ErrWindowOpen = errors.New("a browser window is already open")
)

// Launcher opens one Chrome window at a time on a persistent profile.
type Launcher struct {
	profileDir   string
	execPath     string
	startTimeout time.Duration
	logger       *logging.Logger

	mu   sync.Mutex
	busy bool
}

// NewLauncher creates a launcher using profileDir as Chrome's user data dir.
// The browser binary named by BUBBLECLOUD_BROWSER wins over the system one.
func NewLauncher(profileDir string, logger *logging.Logger) *Launcher {
	return &Launcher{
		profileDir:   profileDir,
		execPath:     os.Getenv(constants.BrowserPathEnvVar),
		startTimeout: constants.BrowserStartTimeout,
		logger:       logger,
	}
}

// window is a single headed Chrome tab and the signal for its closing.
type window struct {
	ctx    context.Context
	closed chan struct{}
	cancel func()
}

// Done is closed when the user closes the window or the browser exits.
func (w *window) Done() <-chan struct{} {
	return w.closed
}

func (l *Launcher) acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return ErrWindowOpen
	}
	l.busy = true
	return nil
}

func (l *Launcher) release() {
	l.mu.Lock()
	l.busy = false
	l.mu.Unlock()
}

// open launches Chrome with a window of the given size. The returned
// window must be closed with cancel.
func (l *Launcher) open(ctx context.Context, width, height int) (*window, error) {
	return l.launch(ctx, width, height, false)
}

// ClearCookies removes every cookie from the browser profile, so the next
// login window cannot reuse the dashboard's session. The profile belongs
// to this app alone. A profile that was never created has nothing to clear.
func (l *Launcher) ClearCookies(ctx context.Context) error {
	if _, err := os.Stat(l.profileDir); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	w, err := l.launch(ctx, constants.LoginWindowWidth, constants.LoginWindowHeight, true)
	if err != nil {
		return err
	}
	defer w.cancel()

	runCtx, cancel := context.WithTimeout(w.ctx, constants.BrowserActionTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx, network.ClearBrowserCookies()); err != nil {
		return fmt.Errorf("failed to clear browser cookies: %w", err)
	}
	l.logger.Debug().Str("profile", l.profileDir).Msg("Browser cookies cleared")
	return nil
}

func (l *Launcher) launch(ctx context.Context, width, height int, headless bool) (*window, error) {
	if err := l.acquire(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(l.profileDir, 0700); err != nil {
		l.release()
		return nil, fmt.Errorf("failed to create browser profile directory: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(l.profileDir),
		chromedp.WindowSize(width, height),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
	)
	if !headless {
		opts = append(opts,
			chromedp.Flag("headless", false),
			chromedp.Flag("hide-scrollbars", false),
			chromedp.Flag("mute-audio", false),
		)
	}
	if l.execPath != "" {
		opts = append(opts, chromedp.ExecPath(l.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	w := &window{
		ctx:    tabCtx,
		closed: make(chan struct{}),
	}
	var closeOnce sync.Once
	markClosed := func() { closeOnce.Do(func() { close(w.closed) }) }

	w.cancel = func() {
		tabCancel()
		allocCancel()
		markClosed()
		l.release()
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if _, ok := ev.(*inspector.EventDetached); ok {
			markClosed()
		}
	})

	// Starts the browser and attaches to the first tab. A browser that never
	// prints its DevTools address would otherwise hold the launcher.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	timer := time.NewTimer(l.startTimeout)
	defer timer.Stop()
	select {
	case err := <-started:
		if err != nil {
			w.cancel()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-timer.C:
		// Killing the process ends Run; the tab is torn down after it.
		allocCancel()
		<-started
		w.cancel()
		return nil, fmt.Errorf("failed to start browser: no response within %s", l.startTimeout)
	case <-ctx.Done():
		<-started
		w.cancel()
		return nil, ctx.Err()
	}

	go func() {
		<-tabCtx.Done()
		markClosed()
	}()

	l.logger.Debug().Str("profile", l.profileDir).Int("width", width).Int("height", height).Bool("headless", headless).Msg("Browser window opened")
	return w, nil
}

// closedErr maps a failed CDP call to ErrWindowClosed when the window is
// gone, and keeps the original error otherwise.
func (w *window) closedErr(err error) error {
	select {
	case <-w.closed:
		return ErrWindowClosed
	default:
	}
	if errors.Is(err, context.Canceled) && w.ctx.Err() != nil {
		return ErrWindowClosed
	}
	return err
}
