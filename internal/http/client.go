// Package http builds the HTTP clients used by the transfer library.
package http

import (
	"crypto/tls"
	"net"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/w3s-cli/w3s/internal/constants"
)

// CreateOptimizedClient creates an HTTP client tuned for large part transfers.
//
// Key features:
//   - Proxy support from HTTP_PROXY, HTTPS_PROXY and NO_PROXY
//   - Large connection pool for concurrent part uploads
//   - HTTP/2 with a runtime toggle (DISABLE_HTTP2 env var)
//   - Disabled transparent compression (parts are compressed upstream)
//
// The client has no overall timeout; every request carries its own context.
func CreateOptimizedClient() *nethttp.Client {
	tr := &nethttp.Transport{
		Proxy: ProxyFromEnvironment(),
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          512,
		MaxIdleConnsPerHost:   64,
		MaxConnsPerHost:       64,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
		ResponseHeaderTimeout: constants.HTTPResponseHeaderTimeout,
		DisableCompression:    true,
		ForceAttemptHTTP2:     true,
	}

	_ = http2.ConfigureTransport(tr)

	// Proxies often break HTTP/2 multiplexing mid-transfer. FORCE_HTTP2=true
	// keeps it on anyway.
	disable := os.Getenv("DISABLE_HTTP2") == "true" ||
		(proxyConfigured() && os.Getenv("FORCE_HTTP2") != "true")
	if disable {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	return &nethttp.Client{Transport: tr}
}
