// Package http builds the HTTP client used for dashboard traffic.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http/httpproxy"
	"golang.org/x/net/http2"

	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
)

// NewClient creates an HTTP client for dashboard uploads and downloads,
// honoring the system proxy environment.
//
// Key features:
//   - Proxy support via HTTP_PROXY/HTTPS_PROXY/NO_PROXY
//   - HTTP/2 when talking to the dashboard directly
//   - No overall timeout; transfers are bounded by their context
//
// Redirects are followed so that a dashboard bouncing an expired session
// to its login page is visible in resp.Request.URL.
func NewClient(logger *logging.Logger) *nethttp.Client {
	return newClient(systemProxyConfig(), logger)
}

func newClient(proxyCfg *httpproxy.Config, logger *logging.Logger) *nethttp.Client {
	tr := newTransport(proxyFunc(proxyCfg, logger))

	tr.ForceAttemptHTTP2 = true
	if err := http2.ConfigureTransport(tr); err != nil && logger != nil {
		logger.Warn().Err(err).Msg("HTTP/2 unavailable, using HTTP/1.1")
	}

	// Proxies often have issues with HTTP/2 multiplexing, causing mid-transfer
	// failures. Set FORCE_HTTP2=true to keep it anyway.
	if proxyActive(proxyCfg) && os.Getenv("FORCE_HTTP2") != "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	return &nethttp.Client{
		Transport: tr,
		Timeout:   0,
	}
}
