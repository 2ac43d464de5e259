package pagecache

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/always-cache/pagecache/finalizer"
	"github.com/always-cache/pagecache/metrics"
	serializer "github.com/always-cache/pagecache/pkg/response-serializer"
	"github.com/always-cache/pagecache/rfc9111"
)

type writeState int32

const (
	writeIdle writeState = iota
	writeArmed
	writeCommitted
	writeSkipped
)

func (s writeState) String() string {
	switch s {
	case writeIdle:
		return "idle"
	case writeArmed:
		return "armed"
	case writeCommitted:
		return "committed"
	case writeSkipped:
		return "skipped"
	}
	return "unknown"
}

// pendingWrite is the cache write state of a single request.
// It lives exactly as long as the request and is never shared with other requests.
type pendingWrite struct {
	state atomic.Int32
	// resolved in the pre-hook
	keyPrefix string
	// resolved in the post-hook
	timeout time.Duration

	req   *http.Request
	page  serializer.StoredResponse
	store *pageStore
	route string
	log   zerolog.Logger
}

func (w *pendingWrite) State() writeState {
	return writeState(w.state.Load())
}

// skip marks the request as not producing a cache write.
func (w *pendingWrite) skip() bool {
	return w.state.CompareAndSwap(int32(writeIdle), int32(writeSkipped))
}

// arm registers the commit of page with the finalization scope of the request.
// If the scope is already closed, the write is abandoned.
func (w *pendingWrite) arm(scope *finalizer.Scope, page serializer.StoredResponse) bool {
	if !w.state.CompareAndSwap(int32(writeIdle), int32(writeArmed)) {
		return false
	}
	w.page = page
	if err := scope.OnFinish(w.commit); err != nil {
		w.abandon(err)
		return false
	}
	return true
}

// commit stores the page, updated with the response as it was sent to the client.
// Only the first call does anything.
func (w *pendingWrite) commit(ctx context.Context, final *http.Response) {
	if !w.state.CompareAndSwap(int32(writeArmed), int32(writeCommitted)) {
		return
	}
	if final == nil {
		w.abandon(nil)
		return
	}
	page := w.page
	page.Header = mergeFinalHeader(page.Header, final)
	if page.StatusCode != http.StatusOK || (final.StatusCode != http.StatusOK && final.StatusCode != http.StatusNotModified) {
		w.log.Trace().Int("status", final.StatusCode).Msg("Final response not storable")
		return
	}

	stored, err := w.store.update(ctx, w.req, page, WriteOptions{
		KeyPrefix: w.keyPrefix,
		Timeout:   w.timeout,
		Mode:      WriteThrough,
	})
	if err != nil {
		if errors.Is(err, errNotStored) {
			w.log.Trace().Msg("Response varies on all request fields, not storing")
			return
		}
		w.log.Error().Err(err).Str("url", w.req.URL.String()).Msg("Could not write to cache")
		metrics.IncStoreError(w.route, "set")
		return
	}
	if stored {
		w.log.Trace().Str("url", w.req.URL.String()).Dur("timeout", w.timeout).Msg("Cache write")
		metrics.IncCacheStore(w.route)
	}
}

// abandon reports an armed write that will never be committed.
func (w *pendingWrite) abandon(err error) {
	w.log.Error().Err(err).Str("url", w.req.URL.String()).Msg("Cache write abandoned")
	metrics.IncAbandonedWrite(w.route)
}

// mergeFinalHeader returns the stored header updated with what later stages changed.
// The final response may be a 304 carrying only a subset of the fields, so fields
// are overlaid, never removed.
func mergeFinalHeader(stored http.Header, final *http.Response) http.Header {
	header := stored.Clone()
	for name, values := range final.Header {
		name = http.CanonicalHeaderKey(name)
		switch name {
		case "Content-Length", "Cache-Status", "Age":
			continue
		}
		header[name] = append([]string(nil), values...)
	}
	header.Del("Age")
	header.Del("Cache-Status")
	return rfc9111.StorableHeader(header)
}
