package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/always-cache/pagecache/cache"
)

const purgeInterval = time.Minute

type provider interface {
	cache.CacheProvider
	Close() error
}

// expiringProvider is implemented by providers that do not drop expired entries by themselves.
type expiringProvider interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type memProvider struct {
	*cache.MemCache
}

func (memProvider) Close() error {
	return nil
}

// openProvider opens the named cache provider.
// Expired entries of file-based providers are purged in the background until ctx is done.
func openProvider(ctx context.Context, name string) (provider, error) {
	var p provider
	switch name {
	case "memory":
		return memProvider{cache.NewMemCache(nil)}, nil
	case "sqlite":
		sqlite, err := cache.NewSQLiteCache(dbFilenameFlag)
		if err != nil {
			return nil, err
		}
		p = sqlite
	case "leveldb":
		leveldb, err := cache.NewLevelDBCache(dbFilenameFlag)
		if err != nil {
			return nil, err
		}
		p = leveldb
	case "redis":
		rc := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: redisAddrFlag}), "pagecache:")
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", name)
	}

	if e, ok := p.(expiringProvider); ok {
		go purgeExpired(ctx, name, e)
	}
	return p, nil
}

func purgeExpired(ctx context.Context, name string, e expiringProvider) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := e.PurgeExpired(ctx)
			if err != nil {
				log.Error().Err(err).Str("provider", name).Msg("Could not purge expired entries")
				continue
			}
			log.Trace().Str("provider", name).Int64("purged", n).Msg("Purged expired entries")
		}
	}
}
