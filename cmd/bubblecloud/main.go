// BubbleCloud - system tray uploader and downloader for a BubbleCloud
// dashboard.
//
// With no arguments it runs in the system tray. The upload, download,
// login, logout and config subcommands run without the tray.
package main

import (
	"os"
	"runtime"

	"github.com/bubblecloud/bubblecloud-tray/internal/cli"
)

func main() {
	// Suppress GTK ibus input method warnings from the native dialogs.
	if runtime.GOOS == "linux" && os.Getenv("GTK_IM_MODULE") == "" {
		os.Setenv("GTK_IM_MODULE", "none")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
