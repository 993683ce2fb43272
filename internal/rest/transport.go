package rest

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// newHTTPTransport returns a pooled Transport with optional TLS verification skipping.
func newHTTPTransport(skipVerify bool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: skipVerify, // NOTE: intended for self-signed Jira servers only
		},

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// newHTTPClient builds an http.Client with the pooled transport and a per-request cap.
// Evidence uploads can be large, hence the generous timeout.
func newHTTPClient(skipVerify bool) *http.Client {
	return &http.Client{
		Timeout:   2 * time.Minute,
		Transport: newHTTPTransport(skipVerify),
	}
}
