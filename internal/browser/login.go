package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/bubblecloud/bubblecloud-tray/internal/constants"
	"github.com/bubblecloud/bubblecloud-tray/internal/dashboard"
)

// Login shows the dashboard login form at loginURL and waits for the user
// to land on the dashboard. It returns the value of the first session-like
// cookie the site set, or ErrWindowClosed if the user gave up.
func (l *Launcher) Login(ctx context.Context, loginURL string) (string, error) {
	w, err := l.open(ctx, constants.LoginWindowWidth, constants.LoginWindowHeight)
	if err != nil {
		return "", err
	}
	defer w.cancel()

	navigated := make(chan string, 16)
	chromedp.ListenTarget(w.ctx, func(ev interface{}) {
		if e, ok := ev.(*page.EventFrameNavigated); ok && e.Frame.ParentID == "" {
			select {
			case navigated <- e.Frame.URL:
			default:
			}
		}
	})

	l.logger.Info().Str("url", loginURL).Msg("Opening login window")
	if err := chromedp.Run(w.ctx, chromedp.Navigate(loginURL)); err != nil {
		return "", w.closedErr(fmt.Errorf("failed to open login page: %w", err))
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-w.Done():
			l.logger.Info().Msg("Login window closed without logging in")
			return "", ErrWindowClosed
		case u := <-navigated:
			if !dashboard.IsDashboardURL(u) {
				continue
			}
			cookies, err := readCookies(w.ctx)
			if err != nil {
				return "", w.closedErr(err)
			}
			token, ok := sessionCookie(cookies)
			if !ok {
				l.logger.Warn().Int("cookies", len(cookies)).Msg("Reached dashboard but no session cookie was set")
				continue
			}
			l.logger.Info().Msg("Login succeeded")
			return token, nil
		}
	}
}

func readCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	ctx, cancel := context.WithTimeout(ctx, constants.BrowserActionTimeout)
	defer cancel()
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return cookies, nil
}

// sessionCookie picks the first cookie whose name mentions "session" or
// "auth". Names are matched case-sensitively.
func sessionCookie(cookies []*network.Cookie) (string, bool) {
	for _, c := range cookies {
		if c == nil {
			continue
		}
		if strings.Contains(c.Name, "session") || strings.Contains(c.Name, "auth") {
			return c.Value, true
		}
	}
	return "", false
}
