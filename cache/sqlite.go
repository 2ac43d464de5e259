package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

type SQLiteCache struct {
	db         *sql.DB
	writeMutex *sync.Mutex
	now        func() time.Time
}

// NewSQLiteCache creates a new cache with the given filename as the db.
// If file name is empty, a new in-memory db is opened.
func NewSQLiteCache(filename string) (*SQLiteCache, error) {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", filename, err)
	}
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS cache (
			key TEXT PRIMARY KEY,
			expires INTEGER,
			bytes BLOB
		)`,
		"CREATE INDEX IF NOT EXISTS expires_idx ON cache (expires)",
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &SQLiteCache{
		db:         db,
		writeMutex: &sync.Mutex{},
		now:        time.Now,
	}, nil
}

func (s *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var expires int64
	var bytes []byte
	err := s.db.QueryRowContext(ctx, "SELECT expires, bytes FROM cache WHERE key = ?", key).Scan(&expires, &bytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: sqlite get: %v", ErrUnavailable, err)
	}
	if !s.now().Before(time.UnixMilli(expires)) {
		return nil, false, s.purgeExpired(ctx, key)
	}
	return bytes, true, nil
}

func (s *SQLiteCache) Put(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return nil
	}
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, expires, bytes) VALUES (?, ?, ?)",
		key, s.now().Add(ttl).UnixMilli(), value)
	if err != nil {
		return fmt.Errorf("%w: sqlite put: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLiteCache) Purge(ctx context.Context, key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: sqlite purge: %v", ErrUnavailable, err)
	}
	return nil
}

// PurgeExpired removes every expired entry and returns how many were removed.
func (s *SQLiteCache) PurgeExpired(ctx context.Context) (int64, error) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	result, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE expires <= ?", s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%w: sqlite purge expired: %v", ErrUnavailable, err)
	}
	return result.RowsAffected()
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

func (s *SQLiteCache) purgeExpired(ctx context.Context, key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ? AND expires <= ?", key, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: sqlite purge: %v", ErrUnavailable, err)
	}
	return nil
}
