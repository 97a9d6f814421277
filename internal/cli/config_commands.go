package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bubblecloud/bubblecloud-tray/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bubblecloud configuration",
		Long: `Configuration management commands for bubblecloud.

Commands:
  show     - Display current configuration
  set-url  - Set the dashboard URL
  path     - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetURLCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := config.Open(configPath(), zerolog.Nop())
			cfg := store.Snapshot()

			url := cfg.URL
			if url == "" {
				url = "(not set)"
			}
			session := "Not authenticated"
			if cfg.Authenticated() {
				session = "Authenticated (token " + maskToken(cfg.AuthToken) + ")"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", store.Path())
			fmt.Fprintf(out, "Dashboard URL: %s\n", url)
			fmt.Fprintf(out, "Session: %s\n", session)
			return nil
		},
	}
}

// newConfigSetURLCmd creates the 'config set-url' command.
func newConfigSetURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-url URL",
		Short: "Set the dashboard URL",
		Long: `Set the dashboard URL, for example https://files.example.com.

Changing the URL forgets the stored session token, since it belongs to
the previous dashboard.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := config.NormalizeURL(args[0])
			if err != nil {
				return err
			}

			store := config.Open(configPath(), GetLogger().Zerolog())
			if store.Snapshot().URL != u {
				if err := store.ClearToken(); err != nil {
					return err
				}
			}
			if err := store.SetURL(u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard URL set to %s\n", u)
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath())
		},
	}
}

// maskToken shows only the last four characters of a token.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
