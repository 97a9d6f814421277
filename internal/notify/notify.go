// Package notify provides cross-platform desktop notifications for finished
// transfers. It uses github.com/gen2brain/beeep for cross-platform
// notification support.
package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/gen2brain/beeep"

	"github.com/bubblecloud/bubblecloud-tray/internal/constants"
	"github.com/bubblecloud/bubblecloud-tray/internal/events"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
)

// Notifier handles desktop notifications.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
	mu      sync.RWMutex

	// send delivers a notification; replaced in tests.
	send func(title, message string) error
}

// NewNotifier creates an enabled notifier.
func NewNotifier(logger *logging.Logger) *Notifier {
	return &Notifier{
		logger:  logger,
		enabled: true,
		send: func(title, message string) error {
			// beeep.Notify is cross-platform:
			// - Windows: Uses toast notifications
			// - macOS: Uses NSUserNotificationCenter
			// - Linux: Uses D-Bus notifications
			return beeep.Notify(title, message, "")
		},
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// UploadComplete announces a finished upload batch.
func (n *Notifier) UploadComplete(files int, name string) {
	message := fmt.Sprintf("Uploaded %s", truncate(name, 60))
	if files > 1 {
		message = fmt.Sprintf("Uploaded %d files", files)
	}
	n.notify("Upload Complete", message)
}

// UploadFailed announces a failed upload batch.
func (n *Notifier) UploadFailed(errorMsg string) {
	n.notify("Upload Failed", truncate(errorMsg, 100))
}

// DownloadComplete announces a finished download.
func (n *Notifier) DownloadComplete(name, savedPath string) {
	n.notify("Download Complete", fmt.Sprintf("%s saved to:\n%s", truncate(name, 40), shortenPath(savedPath)))
}

// DownloadFailed announces a failed download.
func (n *Notifier) DownloadFailed(name, errorMsg string) {
	n.notify("Download Failed", fmt.Sprintf("%s failed:\n%s", truncate(name, 40), truncate(errorMsg, 100)))
}

// Handle turns terminal transfer events into notifications and ignores
// everything else.
func (n *Notifier) Handle(ev events.Event) {
	te, ok := ev.(*events.TransferEvent)
	if !ok {
		return
	}
	switch te.Type() {
	case events.EventTransferCompleted:
		if te.Kind == events.KindUpload {
			n.UploadComplete(te.Files, te.Name)
		} else {
			n.DownloadComplete(te.Name, te.Path)
		}
	case events.EventTransferFailed:
		msg := "unknown error"
		if te.Error != nil {
			msg = te.Error.Error()
		}
		if te.Kind == events.KindUpload {
			n.UploadFailed(msg)
		} else {
			n.DownloadFailed(te.Name, msg)
		}
	}
}

// Watch notifies about every finished transfer published on bus until ctx
// ends or the bus closes. It subscribes to terminal events only, so a burst
// of progress events never pushes them out of the buffer.
func (n *Notifier) Watch(ctx context.Context, bus *events.EventBus) {
	completed := bus.Subscribe(events.EventTransferCompleted)
	failed := bus.Subscribe(events.EventTransferFailed)

	go func() {
		defer bus.UnsubscribeAll(completed)
		defer bus.UnsubscribeAll(failed)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-completed:
				if !ok {
					return
				}
				n.Handle(ev)
			case ev, ok := <-failed:
				if !ok {
					return
				}
				n.Handle(ev)
			}
		}
	}()
}

func (n *Notifier) notify(title, message string) {
	if !n.IsEnabled() {
		return
	}
	if err := n.send(constants.AppTitle+": "+title, message); err != nil {
		n.logger.Warn().Err(err).Str("title", title).Msg("Failed to send notification")
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."[:max(maxLen, 0)]
	}
	return string(runes[:maxLen-3]) + "..."
}

// shortenPath abbreviates a long path for display in notifications.
func shortenPath(path string) string {
	const maxLen = 60

	if utf8.RuneCountInString(path) <= maxLen {
		return path
	}

	// Try to show drive/root + ... + last 2 path components
	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))

	short := filepath.Join("...", parentDir, file)

	vol := filepath.VolumeName(path)
	if vol != "" && len(vol)+len(short)+1 <= maxLen {
		short = vol + string(filepath.Separator) + short
	}

	if utf8.RuneCountInString(short) > maxLen {
		runes := []rune(path)
		return "..." + string(runes[len(runes)-(maxLen-3):])
	}

	return short
}
