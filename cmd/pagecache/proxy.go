package main

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
)

// newOriginProxy creates the reverse proxy to the origin.
// If host is set, it is used as the Host header and TLS server name instead of the origin URL host.
func newOriginProxy(origin *url.URL, host string) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(origin)
			pr.SetXForwarded()
			if host != "" {
				pr.Out.Host = host
			}
		},
		Transport: newTransport(host),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			hlog.FromRequest(r).Error().Err(err).Str("url", r.URL.String()).Msg("Origin request failed")
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}

func newTransport(host string) *http.Transport {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}
	if host != "" {
		tr.TLSClientConfig = &tls.Config{
			ServerName: host,
		}
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		log.Warn().Err(err).Msg("Could not enable HTTP/2 to origin")
	}
	return tr
}
