// Package tray runs BubbleCloud as a system tray application.
package tray

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/bubblecloud/bubblecloud-tray/internal/config"
	"github.com/bubblecloud/bubblecloud-tray/internal/constants"
	"github.com/bubblecloud/bubblecloud-tray/internal/dialogs"
	"github.com/bubblecloud/bubblecloud-tray/internal/events"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
	"github.com/bubblecloud/bubblecloud-tray/internal/notify"
	"github.com/bubblecloud/bubblecloud-tray/internal/session"
	"github.com/bubblecloud/bubblecloud-tray/internal/transfer"
)

//go:embed assets/icon.svg
var iconData []byte

// ErrNoTray is returned on desktops without a system tray.
var ErrNoTray = errors.New("system tray is not supported on this desktop")

// Options are the services the tray dispatches to.
type Options struct {
	Store    *config.Store
	Session  *session.Manager
	Actions  *transfer.Actions
	Dialogs  dialogs.Dialogs
	Notifier *notify.Notifier
	Bus      *events.EventBus
	Logger   *logging.Logger
}

// App is the tray application.
type App struct {
	fyne     fyne.App
	desk     desktop.App
	store    *config.Store
	session  *session.Manager
	actions  *transfer.Actions
	dialogs  dialogs.Dialogs
	notifier *notify.Notifier
	bus      *events.EventBus
	logger   *logging.Logger

	mu       sync.Mutex
	progress string
}

// New creates the fyne application. It fails when there is no display or
// the platform has no tray.
func New(opts Options) (*App, error) {
	if runtime.GOOS == "linux" {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			return nil, fmt.Errorf("the tray requires a display. No display detected.\n" +
				"DISPLAY and WAYLAND_DISPLAY are not set.\n" +
				"Use 'bubblecloud upload' or 'bubblecloud download' instead")
		}
	}

	fyneApp := app.NewWithID(constants.AppID)
	desk, ok := fyneApp.(desktop.App)
	if !ok {
		return nil, ErrNoTray
	}

	return &App{
		fyne:     fyneApp,
		desk:     desk,
		store:    opts.Store,
		session:  opts.Session,
		actions:  opts.Actions,
		dialogs:  opts.Dialogs,
		notifier: opts.Notifier,
		bus:      opts.Bus,
		logger:   opts.Logger,
	}, nil
}

// Run shows the tray icon and blocks until the user quits or ctx ends.
// It must be called from the main goroutine.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.desk.SetSystemTrayIcon(fyne.NewStaticResource("bubblecloud.svg", iconData))
	a.desk.SetSystemTrayMenu(a.buildMenu(ctx))

	sub := a.bus.SubscribeAll()
	go a.watch(ctx, sub)
	a.notifier.Watch(ctx, a.bus)

	a.fyne.Lifecycle().SetOnStarted(func() {
		a.logger.Info().Msg("Tray started")
		go a.startup(ctx)
	})

	go func() {
		<-ctx.Done()
		fyne.Do(a.fyne.Quit)
	}()

	a.fyne.Run()
	a.bus.UnsubscribeAll(sub)
	a.logger.Info().Msg("Tray stopped")
	return nil
}

// startup asks for the dashboard URL and a login when either is missing.
func (a *App) startup(ctx context.Context) {
	if a.store.Snapshot().URL == "" {
		a.promptURL()
	}
	if a.store.Snapshot().URL == "" {
		a.logger.Warn().Msg("No dashboard URL configured")
		a.refresh(ctx)
		return
	}
	if !a.session.Authenticated() {
		if _, err := a.session.Login(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Startup login failed")
			a.dialogs.Error("Login Error", err.Error())
		}
	}
	a.refresh(ctx)
}

// watch keeps the menu and progress row in step with session and transfer
// events.
func (a *App) watch(ctx context.Context, sub <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case *events.SessionEvent:
				a.refresh(ctx)
			case *events.TransferEvent:
				if a.setProgress(progressText(e)) {
					a.refresh(ctx)
				}
			}
		}
	}
}

// setProgress stores the progress row text and reports whether it changed.
func (a *App) setProgress(text string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.progress == text {
		return false
	}
	a.progress = text
	return true
}

func (a *App) state() menuState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return menuState{
		Authenticated: a.session.Authenticated(),
		Progress:      a.progress,
	}
}

// refresh rebuilds the tray menu on the UI thread.
func (a *App) refresh(ctx context.Context) {
	menu := a.buildMenu(ctx)
	fyne.Do(func() {
		a.desk.SetSystemTrayMenu(menu)
	})
}

func (a *App) buildMenu(ctx context.Context) *fyne.Menu {
	entries := menuEntries(a.state())
	items := make([]*fyne.MenuItem, 0, len(entries))
	for _, e := range entries {
		if e.Separator {
			items = append(items, fyne.NewMenuItemSeparator())
			continue
		}
		item := fyne.NewMenuItem(e.Label, a.handler(ctx, e.Action))
		item.Disabled = e.Disabled
		item.IsQuit = e.Action == actionQuit
		items = append(items, item)
	}
	return fyne.NewMenu(constants.AppTitle, items...)
}

// handler maps a menu action to its click handler. Actions run on their
// own goroutine so dialogs and browser windows never block the UI thread.
func (a *App) handler(ctx context.Context, act action) func() {
	switch act {
	case actionUpload:
		return func() { go a.run("upload", func() error { return a.actions.UploadFiles(ctx) }) }
	case actionDownload:
		return func() { go a.run("download", func() error { return a.actions.DownloadFiles(ctx) }) }
	case actionChangeURL:
		return func() { go a.changeURL(ctx) }
	case actionLogout:
		return func() { go a.run("logout", func() error { return a.session.Logout(ctx) }) }
	case actionQuit:
		return func() { a.fyne.Quit() }
	default:
		return nil
	}
}

// run executes a user action. The action reports its own errors in a
// dialog, so they are only logged here.
func (a *App) run(name string, fn func() error) {
	if err := fn(); err != nil {
		if errors.Is(err, transfer.ErrBusy) {
			return
		}
		a.logger.Warn().Err(err).Str("action", name).Msg("Action ended with error")
	}
}

// changeURL asks for a new dashboard URL, drops the old session and logs
// in against the new dashboard.
func (a *App) changeURL(ctx context.Context) {
	a.promptURL()
	// A failed cookie clear is logged by the session manager.
	_ = a.session.Logout(ctx)
	if _, err := a.session.Login(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Login after URL change failed")
		a.dialogs.Error("Login Error", err.Error())
	}
	a.refresh(ctx)
}
