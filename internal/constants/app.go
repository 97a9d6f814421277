package constants

import (
	"time"
)

// Application identity
const (
	// AppID - reverse-DNS id used by fyne for preferences and notifications
	AppID = "com.bubblecloud.tray"

	// AppTitle - name shown in the tray, window titles and notifications
	AppTitle = "BubbleCloud"
)

// Dashboard routes, appended to the configured base URL
const (
	// LoginPath - page hosting the dashboard's login form
	LoginPath = "/login"

	// DashboardPath - landing page after login, and the upload endpoint
	DashboardPath = "/dashboard"

	// FilesPath - file listing served to the file browser window
	FilesPath = "/app-api/get-files"

	// SessionCookieName - cookie the dashboard reads the session token from
	SessionCookieName = "session"

	// UploadFieldName - multipart form field carrying the uploaded file
	UploadFieldName = "file"
)

// Window geometry for the browser-hosted and native views
const (
	URLWindowWidth  = 400
	URLWindowHeight = 200

	LoginWindowWidth  = 500
	LoginWindowHeight = 700

	FilesWindowWidth  = 800
	FilesWindowHeight = 600
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPResponseHeaderTimeout - time allowed for the dashboard to start
	// answering once a request body has been sent (2 minutes)
	HTTPResponseHeaderTimeout = 2 * time.Minute
)

// Transport retries for dashboard requests
const (
	// RetryMax - retries on connection errors and 5xx (4 total attempts)
	RetryMax = 3

	// RetryWaitMin - minimum wait between retries (1 second)
	RetryWaitMin = 1 * time.Second

	// RetryWaitMax - maximum wait between retries (10 seconds)
	RetryWaitMax = 10 * time.Second
)

// Browser timeouts
const (
	// BrowserStartTimeout - time allowed for Chrome to start and attach (30 seconds)
	BrowserStartTimeout = 30 * time.Second

	// BrowserActionTimeout - timeout for a single CDP call such as reading cookies (10 seconds)
	BrowserActionTimeout = 10 * time.Second
)

// BrowserPathEnvVar names a Chrome or Chromium binary to use instead of the
// one found on the system.
const BrowserPathEnvVar = "BUBBLECLOUD_BROWSER"

// Progress reporting
const (
	// ProgressUpdateInterval - minimum interval between tray progress updates (250 ms)
	ProgressUpdateInterval = 250 * time.Millisecond
)
