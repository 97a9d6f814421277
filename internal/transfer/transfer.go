// Package transfer implements the two user actions: uploading files picked
// from disk and downloading files picked in the dashboard's file browser.
package transfer

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/bubblecloud/bubblecloud-tray/internal/browser"
	"github.com/bubblecloud/bubblecloud-tray/internal/config"
	"github.com/bubblecloud/bubblecloud-tray/internal/constants"
	"github.com/bubblecloud/bubblecloud-tray/internal/dashboard"
	"github.com/bubblecloud/bubblecloud-tray/internal/dialogs"
	"github.com/bubblecloud/bubblecloud-tray/internal/events"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
	"github.com/bubblecloud/bubblecloud-tray/internal/progress"
)

var (
	// ErrBusy is returned when an action is triggered while the same
	// action is still running.
	ErrBusy = errors.New("transfer already in progress")

	// ErrLoginCancelled is returned when the user closes the login window
	// during a re-login.
	ErrLoginCancelled = errors.New("login cancelled")
)

// Session is the login state the actions need. *session.Manager
// satisfies it.
type Session interface {
	EnsureLoggedIn(ctx context.Context) (bool, error)
	Relogin(ctx context.Context) (bool, error)
	Routes() (dashboard.Routes, error)
	Snapshot() config.Config
}

// Dashboard moves file contents. *dashboard.Client satisfies it.
type Dashboard interface {
	Upload(ctx context.Context, localPath string, reporter progress.Reporter) error
	Download(ctx context.Context, rawURL, dest string, reporter progress.Reporter) (int64, error)
}

// FileBrowser shows the dashboard's file listing. *browser.Launcher
// satisfies it.
type FileBrowser interface {
	BrowseFiles(ctx context.Context, filesURL, baseURL, token string, handler browser.DownloadHandler) error
}

// Actions runs uploads and downloads. Each action runs at most once at a
// time.
type Actions struct {
	session Session
	dash    Dashboard
	files   FileBrowser
	dialogs dialogs.Dialogs
	bus     *events.EventBus
	logger  *logging.Logger

	uploading   atomic.Bool
	downloading atomic.Bool
}

// NewActions wires the actions. files and dlg may be nil for callers that
// only use Upload, such as the CLI; bus may be nil.
func NewActions(session Session, dash Dashboard, files FileBrowser, dlg dialogs.Dialogs, bus *events.EventBus, logger *logging.Logger) *Actions {
	return &Actions{
		session: session,
		dash:    dash,
		files:   files,
		dialogs: dlg,
		bus:     bus,
		logger:  logger,
	}
}

// Busy reports whether either action is running.
func (a *Actions) Busy() bool {
	return a.uploading.Load() || a.downloading.Load()
}

// trayReporter turns byte progress into throttled progress events for the
// tray label.
func (a *Actions) trayReporter(ev events.TransferEvent) progress.Reporter {
	return progress.NewFuncProgress(constants.ProgressUpdateInterval, func(desc string, fraction float64) {
		e := ev
		e.Name = desc
		e.Progress = fraction
		a.bus.PublishTransfer(events.EventTransferProgress, e)
	})
}
