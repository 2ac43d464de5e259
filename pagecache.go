package pagecache

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/always-cache/pagecache/cache"
	"github.com/always-cache/pagecache/finalizer"
)

// DefaultTimeout is used for routes that do not specify a timeout
// when Config.DefaultTimeout is zero.
const DefaultTimeout = 600 * time.Second

const defaultKeyPrefix = "pagecache"

type Config struct {
	// Storage for cache entries.
	// An in-memory cache driven by Now is used if nil.
	Cache cache.CacheProvider
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
	// Clock used for all freshness calculations. Defaults to time.Now.
	Now func() time.Time
	// Timeout for routes without one of their own.
	DefaultTimeout time.Duration
	// Prefix of every cache key, followed by the key prefix of the route.
	KeyPrefix string
	// Called when the key prefix or timeout of a route cannot be resolved.
	// Nothing has been sent to the client at that point.
	// The default logs the error and responds with 500 Internal Server Error.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// Route is the cache configuration of one route.
// The functions, if set, take precedence over the static values. They may read route
// parameters, e.g. with chi.URLParam, and are called at most once per request.
type Route struct {
	// Name used in logs and metrics.
	Name string
	// Zero means the default timeout. A handler-supplied Cache-Control max-age wins over both.
	Timeout     time.Duration
	TimeoutFunc func(*http.Request) (time.Duration, error)
	KeyPrefix     string
	KeyPrefixFunc func(*http.Request) (string, error)
	// Bypass passes all requests through without reading or writing the cache.
	Bypass bool
}

type PageCache struct {
	store          *pageStore
	log            zerolog.Logger
	now            func() time.Time
	defaultTimeout time.Duration
	keyPrefix      string
	errorHandler   func(http.ResponseWriter, *http.Request, error)
}

// New creates a page cache.
// Middleware for the individual routes is created with CachePage.
func New(config Config) *PageCache {
	// use console logger if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	p := &PageCache{
		log:            logger,
		now:            config.Now,
		defaultTimeout: config.DefaultTimeout,
		keyPrefix:      config.KeyPrefix,
		errorHandler:   config.ErrorHandler,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.defaultTimeout == 0 {
		p.defaultTimeout = DefaultTimeout
	}
	if p.keyPrefix == "" {
		p.keyPrefix = defaultKeyPrefix
	}
	if p.errorHandler == nil {
		p.errorHandler = p.internalError
	}

	provider := config.Cache
	if provider == nil {
		provider = cache.NewMemCache(p.now)
	}
	p.store = &pageStore{
		cache: provider,
		now:   p.now,
	}

	return p
}

// Middleware caches every GET and HEAD response of next using the default timeout.
func (p *PageCache) Middleware(next http.Handler) http.Handler {
	return p.CachePage(Route{})(next)
}

// CachePage returns middleware caching the responses of a single route.
//
// Cache writes happen after the whole response has been sent, so that headers set by
// middleware outside of this one (e.g. additional Vary fields) end up in the cache.
// For that to work, finalizer.Middleware must wrap all such middleware. If it does not,
// the scope is opened here and only the route handler's response is stored.
func (p *PageCache) CachePage(route Route) func(http.Handler) http.Handler {
	name := route.Name
	if name == "" {
		name = "default"
	}
	logger := p.log.With().Str("route", name).Logger()
	return func(next http.Handler) http.Handler {
		return finalizer.Middleware(&interceptor{
			pc:    p,
			route: route,
			name:  name,
			log:   logger,
			next:  next,
		})
	}
}

// fullKeyPrefix joins the cache-wide prefix and the route prefix.
func (p *PageCache) fullKeyPrefix(routePrefix string) string {
	return p.keyPrefix + "." + routePrefix
}

func (p *PageCache) internalError(w http.ResponseWriter, r *http.Request, err error) {
	p.log.Error().Err(err).Str("url", r.URL.String()).Msg("Could not resolve cache configuration")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func getRequestSourceIp(r *http.Request) string {
	// RemoteAddr is in the format:
	// 1.2.3.4:10000 for ipv4
	// [1:2:3]:10000 for ipv6
	ipAndPort := r.RemoteAddr
	portSepIdx := strings.LastIndex(ipAndPort, ":")
	// if not found, return
	if portSepIdx < 0 {
		return ipAndPort
	}
	return ipAndPort[:portSepIdx]
}
