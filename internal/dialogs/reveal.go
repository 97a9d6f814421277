package dialogs

import (
	"os/exec"
	"path/filepath"
	"runtime"
)

// revealCommand builds the file manager invocation for the running OS.
func revealCommand(path string) *exec.Cmd {
	name, args := revealArgs(runtime.GOOS, path)
	return exec.Command(name, args...)
}

func revealArgs(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{"-R", path}
	case "windows":
		return "explorer.exe", []string{"/select," + path}
	default:
		// xdg-open has no "select" mode, so open the containing folder.
		return "xdg-open", []string{filepath.Dir(path)}
	}
}
