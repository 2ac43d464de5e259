package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis and skips the test if there is none.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestRedisCache(t *testing.T) {
	client := setupTestRedis(t)
	r := NewRedisCache(client, "pagecache-test:")
	ctx := context.Background()

	if err := r.Put(ctx, "key", time.Minute, []byte("Hello world")); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	value, ok, err := r.Get(ctx, "key")
	if err != nil || !ok || string(value) != "Hello world" {
		t.Fatalf("Get: %s, ok %v, err %v", value, ok, err)
	}
	if ttl := client.TTL(ctx, "pagecache-test:key").Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("TTL is %v", ttl)
	}
	if err := r.Purge(ctx, "key"); err != nil {
		t.Fatalf("Purge error: %v", err)
	}
	if _, ok, _ := r.Get(ctx, "key"); ok {
		t.Fatal("Purged entry returned")
	}
}

func TestRedisCacheUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := NewRedisCache(client, "")
	defer r.Close()

	if _, _, err := r.Get(context.Background(), "key"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Get error is %v", err)
	}
	if err := r.Put(context.Background(), "key", time.Minute, []byte("x")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Put error is %v", err)
	}
}

func TestNewRedisCachePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("NewRedisCache should panic with nil client")
		}
	}()
	NewRedisCache(nil, "")
}
