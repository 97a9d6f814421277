package tray

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/bubblecloud/bubblecloud-tray/internal/config"
	"github.com/bubblecloud/bubblecloud-tray/internal/constants"
)

// promptURL shows the dashboard URL window and blocks until it closes.
// Saving stores the normalized URL; closing the window without saving
// keeps the current one. The store is re-read afterwards.
func (a *App) promptURL() {
	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	current := a.store.Snapshot().URL

	fyne.Do(func() {
		w := a.fyne.NewWindow(constants.AppTitle + " - Dashboard URL")

		entry := widget.NewEntry()
		entry.SetPlaceHolder("https://dashboard.example.com")
		entry.SetText(current)

		status := widget.NewLabel("")
		status.Wrapping = fyne.TextWrapWord

		save := func() {
			u, err := config.NormalizeURL(entry.Text)
			if err != nil {
				status.SetText(err.Error())
				return
			}
			_ = a.store.SetURL(u)
			a.logger.Info().Str("url", u).Msg("Dashboard URL saved")
			w.Close()
		}
		entry.OnSubmitted = func(string) { save() }

		button := widget.NewButton("Save", save)
		button.Importance = widget.HighImportance

		w.SetContent(container.NewVBox(
			widget.NewLabel("Enter your dashboard URL:"),
			entry,
			status,
			container.NewHBox(layout.NewSpacer(), button),
		))
		w.Resize(fyne.NewSize(constants.URLWindowWidth, constants.URLWindowHeight))
		w.SetFixedSize(true)
		w.CenterOnScreen()
		w.SetOnClosed(finish)
		w.Show()
		w.RequestFocus()
		w.Canvas().Focus(entry)
	})

	<-done
	a.store.Reload()
}
