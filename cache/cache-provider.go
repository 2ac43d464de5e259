package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrUnavailable is returned (wrapped) by providers when the backing store cannot be reached.
// Callers treat it as transient: a failed read is a miss, a failed write is dropped.
var ErrUnavailable = errors.New("cache unavailable")

// CacheProvider is an interface for a cache provider.
// It stores and retrieves []byte values, which represent HTTP responses
// and the header lists they vary on.
// Every entry has a time to live, after which Get must not return it anymore.
//
// Implementations must be thread-safe!
type CacheProvider interface {
	// Get returns the cached value for the given key, if it exists.
	// It also returns a boolean indicating whether retrieval was successful.
	// If the cache entry has expired, the boolean should be false.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores the given value in the cache under the given key,
	// replacing any previous value. A ttl of zero or less stores nothing.
	Put(ctx context.Context, key string, ttl time.Duration, value []byte) error
	// Purge removes the cache entry for the given key.
	Purge(ctx context.Context, key string) error
}

type memCacheEntry struct {
	expires time.Time
	bytes   []byte
}

// MemCache is an in-process provider.
// Expiry is evaluated against the given clock, which makes it usable with fake time.
type MemCache struct {
	mutex *sync.RWMutex
	db    map[string]memCacheEntry
	now   func() time.Time
}

// NewMemCache creates an empty in-memory cache. A nil clock means time.Now.
func NewMemCache(now func() time.Time) *MemCache {
	if now == nil {
		now = time.Now
	}
	return &MemCache{
		mutex: &sync.RWMutex{},
		db:    make(map[string]memCacheEntry),
		now:   now,
	}
}

func (m *MemCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mutex.RLock()
	entry, ok := m.db[key]
	m.mutex.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(entry.expires) {
		m.mutex.Lock()
		// only delete if nobody stored a fresh value in between
		if current, ok := m.db[key]; ok && current.expires.Equal(entry.expires) {
			delete(m.db, key)
		}
		m.mutex.Unlock()
		return nil, false, nil
	}
	return entry.bytes, true, nil
}

func (m *MemCache) Put(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return nil
	}
	bytes := make([]byte, len(value))
	copy(bytes, value)
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.db[key] = memCacheEntry{m.now().Add(ttl), bytes}
	return nil
}

func (m *MemCache) Purge(ctx context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.db, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemCache) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.db)
}
