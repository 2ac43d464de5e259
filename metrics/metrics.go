package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagecache",
			Name:      "cache_hits_total",
			Help:      "Total requests served from the cache",
		},
		[]string{"route"},
	)

	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagecache",
			Name:      "cache_misses_total",
			Help:      "Total cacheable requests passed to the handler",
		},
		[]string{"route"},
	)

	cacheStores = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagecache",
			Name:      "cache_stores_total",
			Help:      "Total responses written to the cache",
		},
		[]string{"route"},
	)

	cacheStoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagecache",
			Name:      "cache_store_errors_total",
			Help:      "Total cache store operation errors",
		},
		[]string{"route", "operation"}, // "get", "set", "delete"
	)

	notModified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagecache",
			Name:      "not_modified_total",
			Help:      "Total 304 Not Modified responses produced by negotiation",
		},
		[]string{"route"},
	)

	abandonedWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagecache",
			Name:      "abandoned_writes_total",
			Help:      "Total armed cache writes that could not be committed",
		},
		[]string{"route"},
	)
)

func Init() {
	prometheus.MustRegister(cacheHits, cacheMisses, cacheStores, cacheStoreErrors, notModified, abandonedWrites)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func IncCacheHit(route string) {
	cacheHits.WithLabelValues(route).Inc()
}

func IncCacheMiss(route string) {
	cacheMisses.WithLabelValues(route).Inc()
}

func IncCacheStore(route string) {
	cacheStores.WithLabelValues(route).Inc()
}

func IncStoreError(route, operation string) {
	cacheStoreErrors.WithLabelValues(route, operation).Inc()
}

func IncNotModified(route string) {
	notModified.WithLabelValues(route).Inc()
}

func IncAbandonedWrite(route string) {
	abandonedWrites.WithLabelValues(route).Inc()
}
