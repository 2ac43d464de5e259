package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/always-cache/pagecache"
	"github.com/always-cache/pagecache/finalizer"
	"github.com/always-cache/pagecache/metrics"
	routerules "github.com/always-cache/pagecache/pkg/route-rules"
)

var (
	// CLI flags
	portFlag           int
	originFlag         string
	hostFlag           string
	providerFlag       string
	dbFilenameFlag     string
	redisAddrFlag      string
	rulesFilenameFlag  string
	timeoutFlag        time.Duration
	keyPrefixFlag      string
	metricsAddrFlag    string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&originFlag, "origin", "", "Origin URL to proxy to")
	flag.StringVar(&hostFlag, "host", "", "Hostname of origin, if different from the origin URL")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&providerFlag, "provider", "memory", "Cache provider to use (memory, sqlite, redis, leveldb)")
	flag.StringVar(&dbFilenameFlag, "db", "cache.db", "Cache DB file or directory name (sqlite and leveldb)")
	flag.StringVar(&redisAddrFlag, "redis-addr", "localhost:6379", "Redis address (redis)")
	flag.StringVar(&rulesFilenameFlag, "rules", "", "Route rules file")
	flag.DurationVar(&timeoutFlag, "timeout", pagecache.DefaultTimeout, "Cache timeout of routes without one")
	flag.StringVar(&keyPrefixFlag, "key-prefix", "", "Prefix of all cache keys")
	flag.StringVar(&metricsAddrFlag, "metrics", "", "Address to serve Prometheus metrics on, e.g. :9090")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	if originFlag == "" {
		log.Fatal().Msg("Please specify origin")
	}
	originUrl, err := url.Parse(originFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse url")
	}

	var rules routerules.Config
	if rulesFilenameFlag != "" {
		if rules, err = routerules.Load(rulesFilenameFlag); err != nil {
			log.Fatal().Err(err).Msg("Could not load route rules")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := openProvider(ctx, providerFlag)
	if err != nil {
		log.Fatal().Err(err).Str("provider", providerFlag).Msg("Could not open cache provider")
	}
	defer provider.Close()

	pc := pagecache.New(pagecache.Config{
		Cache:          provider,
		Logger:         &log.Logger,
		DefaultTimeout: timeoutFlag,
		KeyPrefix:      keyPrefixFlag,
	})

	metrics.Init()
	if metricsAddrFlag != "" {
		go serveMetrics(metricsAddrFlag)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", portFlag),
		Handler: newRouter(pc, rules, newOriginProxy(originUrl, hostFlag)),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Could not shut down server")
		}
	}()

	log.Info().Msgf("Proxying port %v to %s with %d route rules", portFlag, originUrl.String(), len(rules.Rules))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// newRouter creates the handler of the proxy. Every rule gets its own cached route,
// and everything else goes to the origin uncached.
func newRouter(pc *pagecache.PageCache, rules routerules.Config, origin http.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(hlog.NewHandler(log.Logger))
	router.Use(hlog.RemoteAddrHandler("ip"))
	router.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Trace().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	}))
	// cache writes are committed when this scope ends
	router.Use(finalizer.Middleware)

	catchAll := false
	for _, rule := range rules.Rules {
		log.Debug().Str("route", rule.Name).Str("pattern", rule.Pattern).Dur("timeout", rule.Timeout).Bool("bypass", rule.Bypass).Msg("Adding route")
		router.With(pc.CachePage(rule.Route())).Handle(rule.Pattern, origin)
		catchAll = catchAll || rule.Pattern == "/*"
	}
	if !catchAll {
		router.Handle("/*", origin)
	}
	return router
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
