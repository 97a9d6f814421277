package tray

import (
	"fmt"
	"math"

	"github.com/bubblecloud/bubblecloud-tray/internal/events"
)

// action identifies what a menu entry does when clicked.
type action int

const (
	actionNone action = iota
	actionUpload
	actionDownload
	actionChangeURL
	actionLogout
	actionQuit
)

// menuState is everything the tray menu depends on.
type menuState struct {
	Authenticated bool
	Progress      string // empty when no transfer is running
}

// menuEntry is one row of the tray menu.
type menuEntry struct {
	Label     string
	Action    action
	Disabled  bool
	Separator bool
}

var separator = menuEntry{Separator: true}

// menuEntries lays out the tray menu for state.
func menuEntries(state menuState) []menuEntry {
	status := "Not authenticated"
	if state.Authenticated {
		status = "Authenticated ✓"
	}

	entries := []menuEntry{
		{Label: "Upload Files", Action: actionUpload},
		{Label: "Download Files", Action: actionDownload},
		separator,
		{Label: "Change URL", Action: actionChangeURL},
		{Label: "Log Out", Action: actionLogout, Disabled: !state.Authenticated},
		{Label: status, Disabled: true},
	}
	if state.Progress != "" {
		entries = append(entries, menuEntry{Label: state.Progress, Disabled: true})
	}
	return append(entries, separator, menuEntry{Label: "Quit", Action: actionQuit})
}

// progressText renders a transfer event for the progress row. It returns
// "" when the row should be hidden.
func progressText(ev *events.TransferEvent) string {
	switch ev.Type() {
	case events.EventTransferCompleted, events.EventTransferFailed:
		return ""
	}

	verb := "Downloading"
	if ev.Kind == events.KindUpload {
		verb = "Uploading"
	}
	if ev.Type() == events.EventTransferStarted || ev.Progress < 0 {
		return fmt.Sprintf("%s %s…", verb, ev.Name)
	}
	return fmt.Sprintf("%s %s… %d%%", verb, ev.Name, int(math.Round(ev.Progress*100)))
}
