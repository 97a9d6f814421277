package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/bubblecloud/bubblecloud-tray/internal/config"
	"github.com/bubblecloud/bubblecloud-tray/internal/constants"
	"github.com/bubblecloud/bubblecloud-tray/internal/diskspace"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
	"github.com/bubblecloud/bubblecloud-tray/internal/progress"
)

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg("[RETRY] " + msg)
}

// ConfigSource supplies the current dashboard URL and session token.
// *config.Store satisfies it; reading per request picks up URL changes and
// fresh tokens after a re-login.
type ConfigSource interface {
	Snapshot() config.Config
}

// Client talks to the remote dashboard.
type Client struct {
	http   *retryablehttp.Client
	source ConfigSource
	logger *logging.Logger
}

// NewClient creates a dashboard client on top of httpClient, adding
// transport-level retries for connection errors and 5xx responses.
func NewClient(source ConfigSource, httpClient *nethttp.Client, logger *logging.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.RetryMax
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.Logger = &retryLogger{logger: logger}

	return &Client{
		http:   retryClient,
		source: source,
		logger: logger,
	}
}

// Routes returns the routes for the currently configured URL.
func (c *Client) Routes() (Routes, error) {
	cfg := c.source.Snapshot()
	if cfg.URL == "" {
		return Routes{}, config.ErrMissingURL
	}
	return Routes{Base: cfg.URL}, nil
}

// session returns the routes and token for a request, failing early when
// either is missing.
func (c *Client) session() (Routes, string, error) {
	routes, err := c.Routes()
	if err != nil {
		return Routes{}, "", err
	}
	token := c.source.Snapshot().AuthToken
	if token == "" {
		return Routes{}, "", fmt.Errorf("no session token: %w", ErrSessionExpired)
	}
	return routes, token, nil
}

// Upload posts one file to the dashboard as multipart field "file".
// Returns ErrSessionExpired when the dashboard redirects to its login page.
func (c *Client) Upload(ctx context.Context, localPath string, reporter progress.Reporter) error {
	routes, token, err := c.session()
	if err != nil {
		return err
	}
	if reporter == nil {
		reporter = progress.NewNoOpProgress()
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", localPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", localPath)
	}

	header, trailer, contentType, err := multipartEnvelope(filepath.Base(localPath))
	if err != nil {
		return err
	}

	name := filepath.Base(localPath)
	body := func() (io.Reader, error) {
		f, err := os.Open(localPath)
		if err != nil {
			return nil, err
		}
		return &uploadBody{
			Reader: io.MultiReader(
				bytes.NewReader(header),
				progress.NewProgressReader(f, reporter),
				bytes.NewReader(trailer),
			),
			file:   f,
			length: len(header) + int(info.Size()) + len(trailer),
		}, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodPost, routes.DashboardURL(), retryablehttp.ReaderFunc(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cookie", constants.SessionCookieName+"="+token)

	c.logger.Debug().Str("file", localPath).Int64("size", info.Size()).Msg("Uploading file")

	reporter.Start(info.Size(), name)
	resp, err := c.http.Do(req)
	if err != nil {
		reporter.Error(err)
		return fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if redirectedToLogin(resp) {
		reporter.Error(ErrSessionExpired)
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &StatusError{Op: "upload " + name, StatusCode: resp.StatusCode, Body: readSnippet(resp.Body)}
		reporter.Error(err)
		return err
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	reporter.Finish()
	return nil
}

// Download streams rawURL into dest, reporting progress as bytes arrive.
// The file is written to a temp file next to dest and renamed on success,
// so a failed download never leaves a partial file at dest.
func (c *Client) Download(ctx context.Context, rawURL, dest string, reporter progress.Reporter) (int64, error) {
	routes, token, err := c.session()
	if err != nil {
		return 0, err
	}
	if reporter == nil {
		reporter = progress.NewNoOpProgress()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, nethttp.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	// The session cookie belongs to the dashboard only; links to other
	// hosts are fetched without it.
	if routes.SameOrigin(rawURL) {
		req.Header.Set("Cookie", constants.SessionCookieName+"="+token)
	} else {
		c.logger.Debug().Str("url", rawURL).Msg("Download is not on the dashboard host, sending no session cookie")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if redirectedToLogin(resp) {
		return 0, ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &StatusError{Op: "download", StatusCode: resp.StatusCode, Body: readSnippet(resp.Body)}
	}

	if err := diskspace.CheckAvailableSpace(dest, resp.ContentLength, diskspace.DefaultSafetyMargin); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	reporter.Start(resp.ContentLength, filepath.Base(dest))
	n, copyErr := io.Copy(tmp, progress.NewProgressReader(resp.Body, reporter))
	closeErr := tmp.Close()

	if copyErr == nil && closeErr != nil {
		copyErr = closeErr
	}
	if copyErr == nil && resp.ContentLength >= 0 && n != resp.ContentLength {
		copyErr = fmt.Errorf("short download: got %d of %d bytes", n, resp.ContentLength)
	}
	if copyErr != nil {
		os.Remove(tmpPath)
		reporter.Error(copyErr)
		return n, fmt.Errorf("download %s: %w", filepath.Base(dest), copyErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		reporter.Error(err)
		return n, fmt.Errorf("failed to save %s: %w", dest, err)
	}

	reporter.Finish()
	c.logger.Info().Str("url", rawURL).Str("dest", dest).Int64("bytes", n).Msg("Download complete")
	return n, nil
}

// redirectedToLogin reports whether resp ended on (or points at) the login
// page. Redirects are followed, so the final request URL tells; a redirect
// the client refused to follow still carries the Location header.
func redirectedToLogin(resp *nethttp.Response) bool {
	if resp.Request != nil && resp.Request.URL != nil && IsLoginURL(resp.Request.URL.String()) {
		return true
	}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if loc := resp.Header.Get("Location"); loc != "" && IsLoginURL(loc) {
			return true
		}
	}
	return false
}

// multipartEnvelope renders the multipart framing around a single file
// field, so the body can be streamed from disk with a known length.
func multipartEnvelope(filename string) (header, trailer []byte, contentType string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if _, err := mw.CreateFormFile(constants.UploadFieldName, filename); err != nil {
		return nil, nil, "", fmt.Errorf("failed to build multipart header: %w", err)
	}
	headerLen := buf.Len()
	if err := mw.Close(); err != nil {
		return nil, nil, "", fmt.Errorf("failed to build multipart trailer: %w", err)
	}

	all := buf.Bytes()
	header = append([]byte(nil), all[:headerLen]...)
	trailer = append([]byte(nil), all[headerLen:]...)
	return header, trailer, mw.FormDataContentType(), nil
}

// uploadBody is the per-attempt request body. Len lets retryablehttp set
// Content-Length; Close releases the file once the transport is done.
type uploadBody struct {
	io.Reader
	file   *os.File
	length int
}

func (b *uploadBody) Len() int { return b.length }

func (b *uploadBody) Close() error { return b.file.Close() }

func readSnippet(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(data))
}
