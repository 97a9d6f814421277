// Package dialogs shows the native file pickers and message boxes used by
// the tray actions.
package dialogs

import (
	"errors"
)

// ErrCancelled is returned when the user dismisses a picker.
var ErrCancelled = errors.New("dialog cancelled")

// Dialogs is the set of native dialogs the tray actions use. Calls block
// until the user answers.
type Dialogs interface {
	// OpenFiles asks for one or more existing files.
	OpenFiles(title string) ([]string, error)
	// SaveFile asks where to save a file, suggesting defaultName.
	SaveFile(title, defaultName string) (string, error)
	Info(title, message string)
	Error(title, message string)
	// Confirm asks a yes/no question.
	Confirm(title, message string) bool
	// RevealInFolder opens the OS file manager on the folder holding path.
	RevealInFolder(path string) error
}

// pickMany runs pick until the user stops adding files. The first pick
// being cancelled cancels the whole selection; a later cancel ends it.
// Picking a file already chosen does not add it twice.
func pickMany(pick func() (string, error), more func(chosen []string) bool) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for {
		path, err := pick()
		if errors.Is(err, ErrCancelled) {
			if len(files) == 0 {
				return nil, ErrCancelled
			}
			return files, nil
		}
		if err != nil {
			return nil, err
		}
		if path != "" && !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
		if !more(files) {
			if len(files) == 0 {
				return nil, ErrCancelled
			}
			return files, nil
		}
	}
}
