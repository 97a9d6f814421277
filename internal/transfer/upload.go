package transfer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bubblecloud/bubblecloud-tray/internal/dashboard"
	"github.com/bubblecloud/bubblecloud-tray/internal/dialogs"
	"github.com/bubblecloud/bubblecloud-tray/internal/events"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
	"github.com/bubblecloud/bubblecloud-tray/internal/progress"
)

// ReporterFunc returns the progress reporter for one file.
type ReporterFunc func(localPath string) progress.Reporter

// UploadFiles is the tray's upload action: make sure there is a session,
// ask for files, upload them and report the outcome in a dialog.
// Cancelling the login or the picker ends the action without error.
func (a *Actions) UploadFiles(ctx context.Context) error {
	if !a.uploading.CompareAndSwap(false, true) {
		a.logger.Info().Msg("Upload already running, ignoring request")
		return ErrBusy
	}
	defer a.uploading.Store(false)

	opID := uuid.NewString()
	log := a.logger.Child("op", opID)

	ok, err := a.session.EnsureLoggedIn(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Login before upload failed")
		a.dialogs.Error("Login Error", err.Error())
		return err
	}
	if !ok {
		log.Info().Msg("Upload skipped, not logged in")
		return nil
	}

	files, err := a.dialogs.OpenFiles("Select files to upload")
	if errors.Is(err, dialogs.ErrCancelled) || (err == nil && len(files) == 0) {
		log.Debug().Msg("Upload cancelled in file picker")
		return nil
	}
	if err != nil {
		a.dialogs.Error("Upload Error", err.Error())
		return err
	}

	ev := events.TransferEvent{
		OpID:  opID,
		Kind:  events.KindUpload,
		Name:  batchName(files),
		Files: len(files),
	}
	a.bus.PublishTransfer(events.EventTransferStarted, ev)

	err = a.upload(ctx, log, files, func(string) progress.Reporter { return a.trayReporter(ev) })
	if err != nil {
		ev.Error = err
		a.bus.PublishTransfer(events.EventTransferFailed, ev)
		a.dialogs.Error("Upload Error", err.Error())
		return err
	}

	a.bus.PublishTransfer(events.EventTransferCompleted, ev)
	a.dialogs.Info("Upload Complete", "File(s) uploaded successfully!")
	return nil
}

// Upload sends files in order using the stored session. If the dashboard
// reports the session expired, the user is asked to log in once more and
// the whole batch is sent again. newReporter may be nil.
func (a *Actions) Upload(ctx context.Context, files []string, newReporter ReporterFunc) error {
	if !a.uploading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer a.uploading.Store(false)

	return a.upload(ctx, a.logger.Child("op", uuid.NewString()), files, newReporter)
}

func (a *Actions) upload(ctx context.Context, log *logging.Logger, files []string, newReporter ReporterFunc) error {
	log.Info().Int("files", len(files)).Msg("Starting upload")

	err := a.uploadBatch(ctx, log, files, newReporter)
	if !dashboard.IsSessionExpired(err) {
		return err
	}

	log.Info().Msg("Session expired during upload")
	ok, lerr := a.session.Relogin(ctx)
	if lerr != nil {
		return lerr
	}
	if !ok {
		return fmt.Errorf("upload stopped: %w", ErrLoginCancelled)
	}

	err = a.uploadBatch(ctx, log, files, newReporter)
	if dashboard.IsSessionExpired(err) {
		return fmt.Errorf("upload stopped, session expired again after logging in: %w", err)
	}
	return err
}

func (a *Actions) uploadBatch(ctx context.Context, log *logging.Logger, files []string, newReporter ReporterFunc) error {
	for i, path := range files {
		var reporter progress.Reporter
		if newReporter != nil {
			reporter = newReporter(path)
		}
		log.Debug().Str("file", path).Int("index", i+1).Int("total", len(files)).Msg("Uploading")
		if err := a.dash.Upload(ctx, path, reporter); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Upload failed")
			return err
		}
	}
	log.Info().Int("files", len(files)).Msg("Upload complete")
	return nil
}

func batchName(files []string) string {
	if len(files) == 1 {
		return filepath.Base(files[0])
	}
	return fmt.Sprintf("%d files", len(files))
}
