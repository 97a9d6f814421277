package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bubblecloud/bubblecloud-tray/internal/dialogs"
	"github.com/bubblecloud/bubblecloud-tray/internal/notify"
	"github.com/bubblecloud/bubblecloud-tray/internal/tray"
	"github.com/bubblecloud/bubblecloud-tray/internal/version"
)

// newTrayCmd creates the 'tray' command, the same as running with no
// subcommand.
func newTrayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tray",
		Short: "Run in the system tray (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTray(GetContext())
		},
	}
	addTrayFlags(cmd)
	return cmd
}

// addTrayFlags registers the flags shared by the root and tray commands.
func addTrayFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noNotifications, "no-notifications", false, "Do not show desktop notifications for finished transfers")
}

func runTray(ctx context.Context) error {
	log := GetLogger()
	log.Info().Str("version", version.Version).Msg("Starting BubbleCloud tray")

	dlg := dialogs.NewNative(log.Child("component", "dialogs"))
	svc := newServices(dlg)
	defer svc.Close()

	notifier := notify.NewNotifier(log.Child("component", "notify"))
	notifier.SetEnabled(!noNotifications)

	app, err := tray.New(tray.Options{
		Store:    svc.store,
		Session:  svc.session,
		Actions:  svc.actions,
		Dialogs:  dlg,
		Notifier: notifier,
		Bus:      svc.bus,
		Logger:   log.Child("component", "tray"),
	})
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
