package dialogs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sqweek/dialog"

	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
	strutil "github.com/bubblecloud/bubblecloud-tray/internal/util/strings"
)

// Native shows the platform's own dialogs.
type Native struct {
	logger *logging.Logger
}

// NewNative creates the native dialog implementation.
func NewNative(logger *logging.Logger) *Native {
	return &Native{logger: logger}
}

// OpenFiles shows the open-file picker repeatedly, asking after each pick
// whether to add another file. The native picker only returns one file.
func (n *Native) OpenFiles(title string) ([]string, error) {
	startDir, _ := os.UserHomeDir()
	files, err := pickMany(
		func() (string, error) {
			path, err := dialog.File().Title(title).SetStartDir(startDir).Load()
			if err == nil {
				startDir = filepath.Dir(path)
			}
			return path, mapCancel(err)
		},
		func(chosen []string) bool {
			return dialog.Message("%d %s selected. Add another file?", len(chosen), strutil.Pluralize("file", int64(len(chosen)))).
				Title(title).
				YesNo()
		},
	)
	if err != nil && !errors.Is(err, ErrCancelled) {
		n.logger.Error().Err(err).Msg("Open dialog failed")
	}
	return files, err
}

// SaveFile shows the save-file picker.
func (n *Native) SaveFile(title, defaultName string) (string, error) {
	builder := dialog.File().Title(title).SetStartFile(defaultName)
	if dir, err := os.UserHomeDir(); err == nil {
		downloads := filepath.Join(dir, "Downloads")
		if info, err := os.Stat(downloads); err == nil && info.IsDir() {
			dir = downloads
		}
		builder = builder.SetStartDir(dir)
	}
	path, err := builder.Save()
	if err != nil {
		err = mapCancel(err)
		if !errors.Is(err, ErrCancelled) {
			n.logger.Error().Err(err).Msg("Save dialog failed")
		}
		return "", err
	}
	return path, nil
}

// Info shows an informational message box.
func (n *Native) Info(title, message string) {
	dialog.Message("%s", message).Title(title).Info()
}

// Error shows an error message box.
func (n *Native) Error(title, message string) {
	dialog.Message("%s", message).Title(title).Error()
}

// Confirm shows a yes/no message box.
func (n *Native) Confirm(title, message string) bool {
	return dialog.Message("%s", message).Title(title).YesNo()
}

// RevealInFolder opens the file manager with path selected where the
// platform supports it.
func (n *Native) RevealInFolder(path string) error {
	cmd := revealCommand(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open file manager: %w", err)
	}
	go func() {
		// Reap the process; the file manager outlives it on most platforms.
		_ = cmd.Wait()
	}()
	n.logger.Debug().Str("path", path).Msg("Revealed in folder")
	return nil
}

func mapCancel(err error) error {
	if errors.Is(err, dialog.ErrCancelled) {
		return ErrCancelled
	}
	return err
}
