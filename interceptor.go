package pagecache

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/always-cache/pagecache/finalizer"
	"github.com/always-cache/pagecache/metrics"
	serializer "github.com/always-cache/pagecache/pkg/response-serializer"
	tee "github.com/always-cache/pagecache/pkg/response-writer-tee"
	"github.com/always-cache/pagecache/rfc9110"
	"github.com/always-cache/pagecache/rfc9111"
	"github.com/always-cache/pagecache/rfc9211"
)

// request fields that select a response by validator
var conditionalVaryFields = []string{"If-None-Match", "If-Match"}

// interceptor serves one route from the cache, or runs the route handler and arms
// the cache write for its response.
type interceptor struct {
	pc    *PageCache
	route Route
	name  string
	log   zerolog.Logger
	next  http.Handler
}

// ServeHTTP implements the http.Handler interface.
func (h *interceptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.next.ServeHTTP(w, r)
		return
	}

	var cs rfc9211.CacheStatus
	if h.route.Bypass {
		cs.Forward(rfc9211.FwdReasonBypass)
		w.Header().Set("Cache-Status", cs.String())
		h.next.ServeHTTP(w, r)
		h.logRequest(r, cs)
		return
	}

	keyPrefix, err := h.resolveKeyPrefix(r)
	if err != nil {
		h.pc.errorHandler(w, r, err)
		return
	}
	pw := &pendingWrite{
		keyPrefix: keyPrefix,
		req:       r,
		store:     h.pc.store,
		route:     h.name,
		log:       h.log,
	}

	forceRevalidate := rfc9111.RequestForcesRevalidation(r)
	if forceRevalidate {
		h.log.Trace().Msg("Request forces revalidation, not reading from cache")
		cs.Forward(rfc9211.FwdReasonRequest)
	} else if reason := h.serveFromCache(w, r, keyPrefix); reason == "" {
		return
	} else {
		cs.Forward(reason)
	}
	metrics.IncCacheMiss(h.name)

	rec := tee.NewResponseSaver(nil)
	h.next.ServeHTTP(rec, r)
	h.onResponse(w, r, rec, pw, cs, forceRevalidate)
}

// serveFromCache sends the stored response for r, negotiated against the request preconditions.
// It returns the forward reason if there is no usable stored response.
func (h *interceptor) serveFromCache(w http.ResponseWriter, r *http.Request, keyPrefix string) rfc9211.FwdReason {
	sRes, reason, err := h.pc.store.lookup(r.Context(), keyPrefix, r)
	if err != nil {
		if errors.Is(err, serializer.ErrMalformed) {
			h.log.Warn().Err(err).Msg("Purged malformed cache entry")
		} else {
			h.log.Error().Err(err).Msg("Could not retrieve from cache")
			metrics.IncStoreError(h.name, "get")
		}
		return reason
	}
	if reason != "" {
		return reason
	}

	var cs rfc9211.CacheStatus
	cs.Hit()
	header := sRes.Header.Clone()
	if remaining, ok := rfc9111.RefreshForReuse(header, h.pc.now()); ok {
		cs.TTL(int(remaining / time.Second))
	}
	status, header := rfc9110.Negotiate(r, sRes.StatusCode, header)
	if status == http.StatusNotModified {
		metrics.IncNotModified(h.name)
	} else if r.Method != http.MethodHead || sRes.Method != http.MethodHead {
		// a page stored for HEAD has no body to measure
		header.Set("Content-Length", strconv.Itoa(len(sRes.Body)))
	}
	header.Set("Cache-Status", cs.String())
	metrics.IncCacheHit(h.name)
	h.send(w, r, status, header, sRes.Body)
	h.logRequest(r, cs)
	return ""
}

// onResponse decides on the cache write for the handler response in rec and sends the response.
func (h *interceptor) onResponse(w http.ResponseWriter, r *http.Request, rec *tee.ResponseSaver, pw *pendingWrite, cs rfc9211.CacheStatus, forceRevalidate bool) {
	page := serializer.StoredResponse{
		StatusCode: rec.StatusCode(),
		Header:     rec.SentHeader().Clone(),
		Body:       rec.Body(),
	}

	if !h.isCandidate(r, page, forceRevalidate) {
		pw.skip()
		cs.Forward(rfc9211.FwdReasonBypass)
		h.sendWithStatus(w, r, page.StatusCode, page.Header, page.Body, cs)
		return
	}

	timeout, err := h.resolveTimeout(r)
	if err != nil {
		pw.skip()
		h.pc.errorHandler(w, r, err)
		return
	}
	if maxAge, ok := rfc9111.HeaderMaxAge(page.Header); ok {
		timeout = time.Duration(maxAge) * time.Second
	}
	pw.timeout = timeout
	if timeout <= 0 {
		pw.skip()
		cs.Forward(rfc9211.FwdReasonBypass)
		h.sendWithStatus(w, r, page.StatusCode, page.Header, page.Body, cs)
		return
	}

	for _, field := range conditionalVaryFields {
		if !rfc9110.FieldAbsent(r.Header, field) {
			rfc9110.AddListMembers(page.Header, "Vary", field)
		}
	}

	pw.store.update(r.Context(), r, page, WriteOptions{
		KeyPrefix: pw.keyPrefix,
		Timeout:   timeout,
		Mode:      HeadersOnly,
	})

	if page.StatusCode == http.StatusNotModified {
		// nothing new to store, only the freshness fields are refreshed
		pw.skip()
		h.sendWithStatus(w, r, page.StatusCode, page.Header, page.Body, cs)
		return
	}

	scope := finalizer.FromContext(r.Context())
	if scope != nil && pw.arm(scope, page) {
		cs.Stored = true
	}

	status, header := rfc9110.Negotiate(r, page.StatusCode, page.Header.Clone())
	if status == http.StatusNotModified {
		metrics.IncNotModified(h.name)
	}
	h.sendWithStatus(w, r, status, header, page.Body, cs)
}

// isCandidate reports whether the handler response may end up in the cache.
// A 304 is judged as the representation it stands for.
func (h *interceptor) isCandidate(r *http.Request, page serializer.StoredResponse, forceRevalidate bool) bool {
	switch page.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		if forceRevalidate && rfc9110.FieldAbsent(page.Header, "ETag") && rfc9110.FieldAbsent(page.Header, "Last-Modified") {
			return false
		}
	default:
		return false
	}
	if maxAge, ok := rfc9111.HeaderMaxAge(page.Header); ok && maxAge == 0 {
		return false
	}
	mustNotStore, err := rfc9111.MustNotStore(&http.Response{
		StatusCode: http.StatusOK,
		Header:     page.Header,
		Request:    r,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Could not determine storability")
		return false
	}
	return !mustNotStore
}

func (h *interceptor) sendWithStatus(w http.ResponseWriter, r *http.Request, status int, header http.Header, body []byte, cs rfc9211.CacheStatus) {
	header.Set("Cache-Status", cs.String())
	h.send(w, r, status, header, body)
	h.logRequest(r, cs)
}

// send writes a complete response. Vary members already set by outer middleware are kept.
func (h *interceptor) send(w http.ResponseWriter, r *http.Request, status int, header http.Header, body []byte) {
	dst := w.Header()
	for name, values := range header {
		name = http.CanonicalHeaderKey(name)
		if name == "Vary" {
			rfc9110.AddListMembers(dst, "Vary", rfc9110.GetListHeader(header, "Vary")...)
			continue
		}
		dst[name] = append([]string(nil), values...)
	}
	w.WriteHeader(status)
	if r.Method == http.MethodHead || status == http.StatusNotModified || len(body) == 0 {
		return
	}
	if _, err := w.Write(body); err != nil {
		h.log.Error().Err(err).Msg("Could not write response body to client")
	}
}

func (h *interceptor) resolveKeyPrefix(r *http.Request) (string, error) {
	prefix := h.route.KeyPrefix
	if h.route.KeyPrefixFunc != nil {
		var err error
		if prefix, err = h.route.KeyPrefixFunc(r); err != nil {
			return "", fmt.Errorf("resolving key prefix of route %s: %w", h.name, err)
		}
	}
	return h.pc.fullKeyPrefix(prefix), nil
}

func (h *interceptor) resolveTimeout(r *http.Request) (time.Duration, error) {
	if h.route.TimeoutFunc != nil {
		timeout, err := h.route.TimeoutFunc(r)
		if err != nil {
			return 0, fmt.Errorf("resolving timeout of route %s: %w", h.name, err)
		}
		return timeout, nil
	}
	if h.route.Timeout != 0 {
		return h.route.Timeout, nil
	}
	return h.pc.defaultTimeout, nil
}

func (h *interceptor) logRequest(r *http.Request, cs rfc9211.CacheStatus) {
	h.log.Debug().
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Str("sourceIp", getRequestSourceIp(r)).
		Str("status", string(cs.Status)).
		Str("fwd", string(cs.FwdReason)).
		Bool("stored", cs.Stored).
		Int("ttl", cs.TimeToLive).
		Msg("Sending response to client")
}
