package transfer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bubblecloud/bubblecloud-tray/internal/dashboard"
	"github.com/bubblecloud/bubblecloud-tray/internal/dialogs"
	"github.com/bubblecloud/bubblecloud-tray/internal/diskspace"
	"github.com/bubblecloud/bubblecloud-tray/internal/events"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
)

// DownloadFiles is the tray's download action: make sure there is a
// session, then show the dashboard file listing until the user downloads a
// file or closes the window. If the dashboard sends the listing to its
// login page, the user logs in once more and the listing reopens.
func (a *Actions) DownloadFiles(ctx context.Context) error {
	if !a.downloading.CompareAndSwap(false, true) {
		a.logger.Info().Msg("Download already running, ignoring request")
		return ErrBusy
	}
	defer a.downloading.Store(false)

	opID := uuid.NewString()
	log := a.logger.Child("op", opID)

	ok, err := a.session.EnsureLoggedIn(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Login before download failed")
		a.dialogs.Error("Login Error", err.Error())
		return err
	}
	if !ok {
		log.Info().Msg("Download skipped, not logged in")
		return nil
	}

	relogged := false
	for {
		routes, err := a.session.Routes()
		if err != nil {
			a.dialogs.Error("Download Error", err.Error())
			return err
		}
		token := a.session.Snapshot().AuthToken

		err = a.files.BrowseFiles(ctx, routes.FilesURL(), routes.Base, token, func(rawURL string) bool {
			return a.downloadLink(ctx, log, opID, rawURL)
		})
		if !dashboard.IsSessionExpired(err) {
			if err != nil {
				log.Error().Err(err).Msg("File browser failed")
				a.dialogs.Error("Download Error", err.Error())
			}
			return err
		}

		if relogged {
			err = fmt.Errorf("session expired again after logging in: %w", err)
			a.dialogs.Error("Download Error", err.Error())
			return err
		}
		relogged = true

		ok, err := a.session.Relogin(ctx)
		if err != nil {
			a.dialogs.Error("Login Error", err.Error())
			return err
		}
		if !ok {
			log.Info().Msg("Re-login cancelled, closing file browser")
			return nil
		}
	}
}

// downloadLink handles one link picked in the file browser. It returns
// true when the file was saved and the browser should close.
func (a *Actions) downloadLink(ctx context.Context, log *logging.Logger, opID, rawURL string) bool {
	dest, err := a.dialogs.SaveFile("Save File As...", dashboard.FilenameFromURL(rawURL))
	if errors.Is(err, dialogs.ErrCancelled) {
		log.Debug().Str("url", rawURL).Msg("Download cancelled in save dialog")
		return false
	}
	if err != nil {
		a.dialogs.Error("Download Failed", err.Error())
		return false
	}

	ev := events.TransferEvent{
		OpID:  opID,
		Kind:  events.KindDownload,
		Name:  filepath.Base(dest),
		Files: 1,
	}
	a.bus.PublishTransfer(events.EventTransferStarted, ev)
	log.Info().Str("url", rawURL).Str("dest", dest).Msg("Starting download")

	if _, err := a.dash.Download(ctx, rawURL, dest, a.trayReporter(ev)); err != nil {
		log.Error().Err(err).Str("url", rawURL).Msg("Download failed, keeping file browser open")
		ev.Error = err
		a.bus.PublishTransfer(events.EventTransferFailed, ev)
		if diskspace.IsInsufficientSpaceError(err) {
			a.dialogs.Error("Not Enough Disk Space", fmt.Sprintf("%v\n\nFree some space or save to another folder.", err))
			return false
		}
		a.dialogs.Error("Download Failed", fmt.Sprintf("Download failed: %v", err))
		return false
	}

	ev.Path = dest
	a.bus.PublishTransfer(events.EventTransferCompleted, ev)

	message := fmt.Sprintf("File downloaded successfully!\n\nSaved as: %s\nLocation: %s\n\nShow in folder?",
		filepath.Base(dest), filepath.Dir(dest))
	if a.dialogs.Confirm("Download Complete", message) {
		if err := a.dialogs.RevealInFolder(dest); err != nil {
			log.Warn().Err(err).Str("path", dest).Msg("Failed to reveal download")
		}
	}
	return true
}
