package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis, relying on key expiry for the ttl.
type RedisCache struct {
	redis     *redis.Client
	namespace string
}

// NewRedisCache creates a provider on top of an existing client.
// Every key is prefixed with namespace, so one Redis database can serve several caches.
func NewRedisCache(client *redis.Client, namespace string) *RedisCache {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisCache{
		redis:     client,
		namespace: namespace,
	}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.redis.Get(ctx, r.namespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: redis get: %v", ErrUnavailable, err)
	}
	return data, true, nil
}

func (r *RedisCache) Put(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.redis.Set(ctx, r.namespace+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisCache) Purge(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, r.namespace+key).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping checks the connection to Redis.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.redis.Close()
}
