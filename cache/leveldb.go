package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var entryPrefix = []byte("e:")

// LevelDBCache stores entries on disk. Each value is prefixed with its expiry
// (unix milliseconds, big endian); expired entries are removed when read.
type LevelDBCache struct {
	db  *leveldb.DB
	now func() time.Time
}

// NewLevelDBCache opens (or creates) the database at path.
// An empty path opens a database that lives in memory only.
func NewLevelDBCache(path string) (*LevelDBCache, error) {
	var db *leveldb.DB
	var err error
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDBCache{db: db, now: time.Now}, nil
}

func (l *LevelDBCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := l.db.Get(entryKey(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: leveldb get: %v", ErrUnavailable, err)
	}
	if len(b) < 8 {
		// not written by us, drop it
		return nil, false, l.Purge(ctx, key)
	}
	expires := time.UnixMilli(int64(binary.BigEndian.Uint64(b[:8])))
	if !l.now().Before(expires) {
		return nil, false, l.Purge(ctx, key)
	}
	return b[8:], true, nil
}

func (l *LevelDBCache) Put(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return nil
	}
	b := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(b[:8], uint64(l.now().Add(ttl).UnixMilli()))
	copy(b[8:], value)
	batch := new(leveldb.Batch)
	batch.Put(entryKey(key), b)
	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("%w: leveldb put: %v", ErrUnavailable, err)
	}
	return nil
}

func (l *LevelDBCache) Purge(ctx context.Context, key string) error {
	batch := new(leveldb.Batch)
	batch.Delete(entryKey(key))
	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("%w: leveldb delete: %v", ErrUnavailable, err)
	}
	return nil
}

// PurgeExpired removes every expired entry and returns how many were removed.
func (l *LevelDBCache) PurgeExpired(ctx context.Context) (int64, error) {
	it := l.db.NewIterator(util.BytesPrefix(entryPrefix), nil)
	defer it.Release()

	now := l.now()
	batch := new(leveldb.Batch)
	var removed int64
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		v := it.Value()
		if len(v) < 8 || !now.Before(time.UnixMilli(int64(binary.BigEndian.Uint64(v[:8])))) {
			batch.Delete(append([]byte(nil), it.Key()...))
			removed++
		}
	}
	if err := it.Error(); err != nil {
		return 0, fmt.Errorf("%w: leveldb iterate: %v", ErrUnavailable, err)
	}
	if err := l.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("%w: leveldb purge expired: %v", ErrUnavailable, err)
	}
	return removed, nil
}

func (l *LevelDBCache) Close() error {
	return l.db.Close()
}

func entryKey(key string) []byte {
	return append(append([]byte(nil), entryPrefix...), key...)
}
