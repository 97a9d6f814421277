package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/bubblecloud/bubblecloud-tray/internal/constants"
	"github.com/bubblecloud/bubblecloud-tray/internal/dashboard"
)

// DownloadHandler is called with every link the user follows out of the
// file listing. Returning true closes the file browser.
type DownloadHandler func(url string) (closeWindow bool)

// navigation is what the file browser does with a document request.
type navigation int

const (
	navContinue navigation = iota
	navExpired
	navDownload
)

func (n navigation) String() string {
	switch n {
	case navContinue:
		return "continue"
	case navExpired:
		return "expired"
	case navDownload:
		return "download"
	default:
		return "unknown"
	}
}

// classify decides how a document request from the file browser is
// handled. Frames embedded in the page always load. In the top frame,
// pages under filesURL load normally, the login page means the session ran
// out, and everything else is a download.
func classify(filesURL, u string, mainFrame bool) navigation {
	if !mainFrame || strings.HasPrefix(u, filesURL) {
		return navContinue
	}
	if dashboard.IsLoginURL(u) {
		return navExpired
	}
	return navDownload
}

// BrowseFiles opens the dashboard file listing at filesURL with the session
// cookie for baseURL preset. Links leading outside the listing are
// cancelled in the browser and handed to handler one at a time.
//
// Returns nil when the user closes the window or handler asks to close it,
// and dashboard.ErrSessionExpired when the dashboard sends the window to
// its login page.
func (l *Launcher) BrowseFiles(ctx context.Context, filesURL, baseURL, token string, handler DownloadHandler) error {
	base, err := url.Parse(baseURL)
	if err != nil || base.Hostname() == "" {
		return fmt.Errorf("invalid dashboard URL %q", baseURL)
	}

	w, err := l.open(ctx, constants.FilesWindowWidth, constants.FilesWindowHeight)
	if err != nil {
		return err
	}
	defer w.cancel()

	paused := make(chan *fetch.EventRequestPaused, 16)
	chromedp.ListenTarget(w.ctx, func(ev interface{}) {
		if e, ok := ev.(*fetch.EventRequestPaused); ok {
			// Handlers must not block the event loop; answering happens in
			// the loop below.
			go func() {
				select {
				case paused <- e:
				case <-w.Done():
				}
			}()
		}
	})

	var mainFrame cdp.FrameID
	setup := chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to read frame tree: %w", err)
		}
		mainFrame = tree.Frame.ID

		if err := network.SetCookie(constants.SessionCookieName, token).
			WithURL(baseURL).
			WithDomain(base.Hostname()).
			WithPath("/").
			WithSecure(false).
			WithHTTPOnly(false).
			Do(ctx); err != nil {
			return fmt.Errorf("failed to set session cookie: %w", err)
		}
		return fetch.Enable().WithPatterns([]*fetch.RequestPattern{{
			URLPattern:   "*",
			ResourceType: network.ResourceTypeDocument,
			RequestStage: fetch.RequestStageRequest,
		}}).Do(ctx)
	})
	if err := chromedp.Run(w.ctx, network.Enable(), setup); err != nil {
		return w.closedErr(err)
	}

	// Navigate blocks until the page loads, and the load itself is paused
	// until the loop answers it, so it runs in the background.
	navErr := make(chan error, 1)
	go func() {
		navErr <- chromedp.Run(w.ctx, chromedp.Navigate(filesURL))
	}()
	l.logger.Info().Str("url", filesURL).Msg("Opening file browser")

	downloads := make(chan string, 8)
	closeReq := make(chan struct{})
	go func() {
		for {
			select {
			case u := <-downloads:
				if handler(u) {
					close(closeReq)
					return
				}
			case <-w.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.Done():
			l.logger.Info().Msg("File browser closed")
			return nil
		case <-closeReq:
			l.logger.Debug().Msg("Closing file browser after download")
			return nil
		case err := <-navErr:
			if err != nil {
				if errors.Is(w.closedErr(err), ErrWindowClosed) {
					return nil
				}
				l.logger.Debug().Err(err).Msg("File listing navigation ended with error")
			}
		case e := <-paused:
			u := e.Request.URL
			action := classify(filesURL, u, e.FrameID == mainFrame)
			l.logger.Debug().Str("url", u).Str("frame", string(e.FrameID)).Stringer("action", action).Msg("File browser navigation")

			if err := answer(w.ctx, e.RequestID, action); err != nil {
				if errors.Is(w.closedErr(err), ErrWindowClosed) {
					return nil
				}
				l.logger.Warn().Err(err).Str("url", u).Msg("Failed to answer paused request")
			}

			switch action {
			case navExpired:
				l.logger.Info().Msg("Dashboard redirected the file browser to login")
				return dashboard.ErrSessionExpired
			case navDownload:
				select {
				case downloads <- u:
				default:
					l.logger.Warn().Str("url", u).Msg("Download already pending, ignoring link")
				}
			}
		}
	}
}

func answer(ctx context.Context, id fetch.RequestID, action navigation) error {
	ctx, cancel := context.WithTimeout(ctx, constants.BrowserActionTimeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if action == navContinue {
			return fetch.ContinueRequest(id).Do(ctx)
		}
		return fetch.FailRequest(id, network.ErrorReasonAborted).Do(ctx)
	}))
}
