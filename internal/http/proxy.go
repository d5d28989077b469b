package http

import (
	nethttp "net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// ProxyFromEnvironment returns a proxy function reading HTTP_PROXY,
// HTTPS_PROXY and NO_PROXY (and their lowercase forms) once, honoring the
// NoProxy bypass list for hosts and CIDRs.
func ProxyFromEnvironment() func(*nethttp.Request) (*url.URL, error) {
	return proxyFunc(httpproxy.FromEnvironment())
}

func proxyFunc(cfg *httpproxy.Config) func(*nethttp.Request) (*url.URL, error) {
	fn := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		return fn(req.URL)
	}
}

func proxyConfigured() bool {
	cfg := httpproxy.FromEnvironment()
	return cfg.HTTPProxy != "" || cfg.HTTPSProxy != ""
}
