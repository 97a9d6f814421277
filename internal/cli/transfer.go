package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bubblecloud/bubblecloud-tray/internal/dashboard"
	"github.com/bubblecloud/bubblecloud-tray/internal/pathutil"
	"github.com/bubblecloud/bubblecloud-tray/internal/progress"
	"github.com/bubblecloud/bubblecloud-tray/internal/transfer"
	strutil "github.com/bubblecloud/bubblecloud-tray/internal/util/strings"
)

// ErrNotLoggedIn is returned when a command needs a session and the login
// window was closed.
var ErrNotLoggedIn = errors.New("not logged in")

// newUploadCmd creates the 'upload' command.
func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files to the dashboard",
		Long: `Upload one or more files to the dashboard using the stored session.

If the session has expired, a login window opens once and the whole
batch is sent again.

Examples:
  bubblecloud upload report.pdf
  bubblecloud upload *.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range args {
				info, err := os.Stat(f)
				if err != nil {
					return fmt.Errorf("cannot upload %s: %w", f, err)
				}
				if info.IsDir() {
					return fmt.Errorf("cannot upload %s: is a directory", f)
				}
			}

			svc := newServices(nil)
			defer svc.Close()
			ctx := GetContext()

			if err := ensureSession(ctx, svc); err != nil {
				return err
			}

			ui := progress.NewUploadUI(len(args))
			err := svc.actions.Upload(ctx, args, func(path string) progress.Reporter {
				return ui.AddFile(path)
			})
			ui.Wait()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d %s\n", len(args), strutil.Pluralize("file", int64(len(args))))
			return nil
		},
	}
}

// newDownloadCmd creates the 'download' command.
func newDownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download URL",
		Short: "Download a file from the dashboard",
		Long: `Download a file link from the dashboard using the stored session.

The file is saved under its name from the URL in the current directory,
or at --output. If --output is a directory the file is saved inside it.

Examples:
  bubblecloud download https://files.example.com/uploads/report.pdf
  bubblecloud download https://files.example.com/uploads/report.pdf -o ~/Downloads`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURL := args[0]
			dest, err := downloadDestination(rawURL, output)
			if err != nil {
				return err
			}

			svc := newServices(nil)
			defer svc.Close()
			ctx := GetContext()

			if err := ensureSession(ctx, svc); err != nil {
				return err
			}

			n, err := svc.client.Download(ctx, rawURL, dest, progress.NewCLIProgress())
			if dashboard.IsSessionExpired(err) {
				ok, lerr := svc.session.Relogin(ctx)
				if lerr != nil {
					return lerr
				}
				if !ok {
					return fmt.Errorf("download stopped: %w", transfer.ErrLoginCancelled)
				}
				n, err = svc.client.Download(ctx, rawURL, dest, progress.NewCLIProgress())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", dest, n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file or directory")
	return cmd
}

// downloadDestination resolves where a download is written.
func downloadDestination(rawURL, output string) (string, error) {
	name := dashboard.FilenameFromURL(rawURL)
	if output == "" {
		return name, nil
	}
	out, err := pathutil.ResolveAbsolutePath(output)
	if err != nil {
		return "", fmt.Errorf("invalid output path %s: %w", output, err)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name), nil
	}
	return out, nil
}

// ensureSession opens the login window when no token is stored.
func ensureSession(ctx context.Context, svc *services) error {
	ok, err := svc.session.EnsureLoggedIn(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotLoggedIn
	}
	return nil
}
