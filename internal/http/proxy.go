package http

import (
	"crypto/tls"
	"net"
	nethttp "net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"

	"github.com/bubblecloud/bubblecloud-tray/internal/constants"
	"github.com/bubblecloud/bubblecloud-tray/internal/logging"
)

// newTransport builds the base transport used for all dashboard traffic.
func newTransport(proxy func(*nethttp.Request) (*url.URL, error)) *nethttp.Transport {
	return &nethttp.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
		ResponseHeaderTimeout: constants.HTTPResponseHeaderTimeout,
	}
}

// proxyFunc returns a proxy function for the given proxy settings that logs
// routing decisions. Returns nil when no proxy is configured, so the
// transport dials directly.
func proxyFunc(cfg *httpproxy.Config, logger *logging.Logger) func(*nethttp.Request) (*url.URL, error) {
	if cfg == nil || (cfg.HTTPProxy == "" && cfg.HTTPSProxy == "") {
		return nil
	}

	fn := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := fn(req.URL)
		if logger != nil {
			if result == nil {
				logger.Debug().Str("host", req.URL.Host).Msg("[PROXY] Bypass (direct connection)")
			} else {
				logger.Debug().Str("host", req.URL.Host).Str("proxy", result.Host).Msg("[PROXY] Proxied")
			}
		}
		return result, err
	}
}

// systemProxyConfig reads HTTP_PROXY, HTTPS_PROXY and NO_PROXY (and their
// lowercase forms).
func systemProxyConfig() *httpproxy.Config {
	return httpproxy.FromEnvironment()
}

// proxyActive reports whether cfg routes any traffic through a proxy.
func proxyActive(cfg *httpproxy.Config) bool {
	return cfg != nil && (cfg.HTTPProxy != "" || cfg.HTTPSProxy != "")
}
