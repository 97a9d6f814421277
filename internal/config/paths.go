package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user data directory.
const AppName = "BubbleCloud"

// DataDirectory returns the per-user application data directory.
//
// Locations:
//   - Windows: %APPDATA%\BubbleCloud
//   - macOS: ~/Library/Application Support/BubbleCloud
//   - Linux: $XDG_CONFIG_HOME/BubbleCloud (~/.config/BubbleCloud)
func DataDirectory() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), AppName)
		}
		return filepath.Join(homeDir, ".config", AppName)
	}
	return filepath.Join(configDir, AppName)
}

// DefaultConfigPath returns the location of config.json.
func DefaultConfigPath() string {
	return filepath.Join(DataDirectory(), "config.json")
}

// BrowserProfileDirectory holds the embedded browser profile, so cookies the
// dashboard sets during login survive between windows.
func BrowserProfileDirectory() string {
	return filepath.Join(DataDirectory(), "browser-profile")
}

// LogDirectory returns the directory for rotated tray logs.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\BubbleCloud\logs
//   - Unix: <DataDirectory>/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData != "" {
			return filepath.Join(localAppData, AppName, "logs")
		}
	}
	return filepath.Join(DataDirectory(), "logs")
}

// EnsureLogDirectory creates the log directory if it doesn't exist.
// Uses 0700 permissions since logs may contain dashboard URLs.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}
