//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a Redis container and returns a client
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisCache_Integration(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	r := NewRedisCache(client, "integration:")
	ctx := context.Background()
	if err := r.Ping(ctx); err != nil {
		t.Fatalf("Ping error: %v", err)
	}

	// expiry is handled by Redis itself, so only the shared non-clock behaviour is checked
	for _, key := range []string{"a", "prefix:GET:/page\t\nx-header: 1"} {
		if err := r.Put(ctx, key, time.Minute, []byte(key)); err != nil {
			t.Fatalf("Put %q: %v", key, err)
		}
		value, ok, err := r.Get(ctx, key)
		if err != nil || !ok || string(value) != key {
			t.Fatalf("Get %q: %s, ok %v, err %v", key, value, ok, err)
		}
	}
	if _, ok, err := r.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get missing: ok %v, err %v", ok, err)
	}
}
