package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bubblecloud/bubblecloud-tray/internal/config"
	"github.com/bubblecloud/bubblecloud-tray/internal/util/sanitize"
)

// newLoginCmd creates the 'login' command.
func newLoginCmd() *cobra.Command {
	var withToken bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the dashboard",
		Long: `Open the dashboard login page in a browser window and store the
session token once you reach the dashboard.

With --token, paste an existing session token instead. The token is read
from the terminal without echo, or from stdin when it is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newServices(nil)
			defer svc.Close()

			if svc.store.Snapshot().URL == "" {
				return fmt.Errorf("%w: run 'bubblecloud config set-url URL' first", config.ErrMissingURL)
			}

			if withToken {
				token, err := readToken(os.Stdin, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				if err := svc.store.SetToken(token); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Session token saved")
				return nil
			}

			ok, err := svc.session.Login(GetContext())
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotLoggedIn
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
			return nil
		},
	}

	cmd.Flags().BoolVar(&withToken, "token", false, "Read a session token instead of opening the login window")
	return cmd
}

// newLogoutCmd creates the 'logout' command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token and browser cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newServices(nil)
			defer svc.Close()

			err := svc.session.Logout(GetContext())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return err
		},
	}
}

// readToken reads a session token. A terminal is read without echo;
// anything else is read up to the first newline.
func readToken(in *os.File, prompt io.Writer) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		fmt.Fprint(prompt, "Session token: ")
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return cleanToken(string(raw))
	}
	return readTokenFrom(in)
}

func readTokenFrom(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return cleanToken(line)
}

func cleanToken(s string) (string, error) {
	token := sanitize.SanitizeField(s)
	if token == "" {
		return "", errors.New("empty session token")
	}
	return token, nil
}
