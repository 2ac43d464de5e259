package pagecache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/always-cache/pagecache/cache"
	cachekey "github.com/always-cache/pagecache/pkg/cache-key"
	serializer "github.com/always-cache/pagecache/pkg/response-serializer"
	"github.com/always-cache/pagecache/rfc9110"
	"github.com/always-cache/pagecache/rfc9111"
	"github.com/always-cache/pagecache/rfc9211"
)

type WriteMode int

const (
	// HeadersOnly computes the freshness fields of the response without storing it.
	HeadersOnly WriteMode = iota
	// WriteThrough stores the response as is.
	WriteThrough
)

type WriteOptions struct {
	KeyPrefix string
	Timeout   time.Duration
	Mode      WriteMode
}

// errNotStored marks responses that cannot be selected by any later request.
var errNotStored = errors.New("response not storable")

// storedPage is a page found in the store, with the request method it was stored for.
type storedPage struct {
	serializer.StoredResponse
	Method string
}

// pageStore keeps pages in a cache provider under two-level keys:
// the Vary field names per URL, and the pages themselves per method and Vary values.
type pageStore struct {
	cache cache.CacheProvider
	now   func() time.Time
}

// lookup returns the stored page for r.
// If there is none, the forward reason tells why. HEAD requests can be satisfied by
// stored GET responses. Store errors are returned as is, and malformed pages are
// purged and reported as serializer.ErrMalformed.
func (s *pageStore) lookup(ctx context.Context, keyPrefix string, r *http.Request) (storedPage, rfc9211.FwdReason, error) {
	keyer := cachekey.NewCacheKeyer(keyPrefix)
	list, ok, err := s.cache.Get(ctx, keyer.HeaderListKey(r))
	if err != nil {
		return storedPage{}, rfc9211.FwdReasonMiss, err
	}
	if !ok {
		return storedPage{}, rfc9211.FwdReasonUriMiss, nil
	}
	names := cachekey.DecodeHeaderList(list)

	methods := []string{r.Method}
	if r.Method == http.MethodHead {
		methods = []string{http.MethodGet, http.MethodHead}
	}
	for _, method := range methods {
		key, err := keyer.PageKey(method, r, names)
		if err != nil {
			return storedPage{}, rfc9211.FwdReasonMethod, err
		}
		b, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			return storedPage{}, rfc9211.FwdReasonMiss, err
		}
		if !ok {
			continue
		}
		sRes, err := serializer.BytesToStoredResponse(b)
		if err != nil {
			if purgeErr := s.cache.Purge(ctx, key); purgeErr != nil {
				err = errors.Join(err, purgeErr)
			}
			return storedPage{}, rfc9211.FwdReasonMiss, fmt.Errorf("page %q: %w", key, err)
		}
		return storedPage{sRes, method}, "", nil
	}
	return storedPage{}, rfc9211.FwdReasonVaryMiss, nil
}

// update applies the write options to page. HeadersOnly only patches the header of
// page, see patchResponseHeaders. WriteThrough stores the page as is for the timeout
// and reports whether it did.
func (s *pageStore) update(ctx context.Context, r *http.Request, page serializer.StoredResponse, opts WriteOptions) (bool, error) {
	if opts.Mode == HeadersOnly {
		patchResponseHeaders(page.Header, opts.Timeout, s.now())
		return false, nil
	}
	if opts.Timeout <= 0 || page.StatusCode != http.StatusOK {
		return false, nil
	}
	names, ok := cachekey.VaryNames(page.Header)
	if !ok {
		return false, errNotStored
	}
	// a cookie set for a cookieless request must not be handed to other cookieless clients
	if len(r.Cookies()) == 0 && len(page.Header.Values("Set-Cookie")) > 0 && rfc9110.HasListMember(page.Header, "Vary", "Cookie") {
		return false, nil
	}

	keyer := cachekey.NewCacheKeyer(opts.KeyPrefix)
	key, err := keyer.PageKey(r.Method, r, names)
	if err != nil {
		return false, err
	}
	page.StoredAt = s.now()
	b, err := serializer.StoredResponseToBytes(page)
	if err != nil {
		return false, err
	}
	if err := s.cache.Put(ctx, keyer.HeaderListKey(r), opts.Timeout, cachekey.EncodeHeaderList(names)); err != nil {
		return false, err
	}
	if err := s.cache.Put(ctx, key, opts.Timeout, b); err != nil {
		return false, err
	}
	return true, nil
}

// patchResponseHeaders sets the freshness fields for timeout. An Expires set by the handler is kept.
// Validators are left to the handler.
func patchResponseHeaders(header http.Header, timeout time.Duration, now time.Time) {
	if timeout < 0 {
		timeout = 0
	}
	if rfc9110.FieldAbsent(header, "Expires") {
		rfc9111.SetExpires(header, now.Add(timeout))
	}
	rfc9111.SetMaxAge(header, int(timeout/time.Second))
}
