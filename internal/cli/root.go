// Package cli provides the command-line interface for bubblecloud. With no
// subcommand it runs the tray application.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bubblecloud/bubblecloud-tray/internal/config"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
	"github.com/bubblecloud/bubblecloud-tray/internal/version"
)

// DebugEnvVar enables debug logging when set to any value.
const DebugEnvVar = "BUBBLECLOUD_DEBUG"

var (
	// Global flags
	cfgFile         string
	verbose         bool
	noNotifications bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command. Running it without a subcommand
// starts the tray.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bubblecloud",
		Short: "BubbleCloud - tray uploader and downloader for your dashboard",
		Long: `BubbleCloud ` + version.Version + ` - Built: ` + version.BuildTime + `
Upload files to and download files from your BubbleCloud dashboard.

Tray Mode (default):
  Runs in the system tray. Use the tray menu to upload or download.

CLI Mode:
  upload, download, login, logout and config subcommands work without
  the tray, using the same stored session.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = newLogger(isTrayCommand(cmd))
			if verbose || os.Getenv(DebugEnvVar) != "" {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTray(GetContext())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default: "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	addTrayFlags(rootCmd)

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newTrayCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// configPath returns the --config flag or the per-user default.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func isTrayCommand(cmd *cobra.Command) bool {
	return cmd == cmd.Root() || cmd.Name() == "tray"
}

// newLogger logs to stderr, plus a rotated file when running the tray.
func newLogger(tray bool) *logging.Logger {
	if !tray {
		return logging.NewDefaultCLILogger()
	}
	if err := config.EnsureLogDirectory(); err != nil {
		l := logging.NewDefaultCLILogger()
		l.Warn().Err(err).Msg("Cannot create log directory, logging to console only")
		return l
	}
	return logging.NewLogger(logging.ModeTray, config.LogDirectory())
}
