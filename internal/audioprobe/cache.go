package audioprobe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

var durationsBucket = []byte("durations")

type cacheEntry struct {
	Size     int64 `msgpack:"size"`
	ModTime  int64 `msgpack:"mtime"`
	Duration int64 `msgpack:"duration"`
}

// Cache remembers probed durations in a bbolt file keyed by absolute path.
// An entry is reused only while the payload's size and modification time are
// unchanged.
type Cache struct {
	db     *bolt.DB
	next   Prober
	hits   atomic.Int64
	misses atomic.Int64
}

// OpenCache opens or creates the cache file at path.
func OpenCache(path string, next Prober) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory failed: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open duration cache %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(durationsBucket)
		return createErr
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Cache{db: db, next: next}, nil
}

func (cache *Cache) Close() error {
	if cache == nil || cache.db == nil {
		return nil
	}
	return cache.db.Close()
}

// Stats returns cache hits and misses so far.
func (cache *Cache) Stats() (hits, misses int64) {
	return cache.hits.Load(), cache.misses.Load()
}

func (cache *Cache) Duration(ctx context.Context, path string) (time.Duration, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(absolute)
	if err != nil {
		return 0, err
	}
	key := []byte(absolute)

	var cached *cacheEntry
	if err := cache.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(durationsBucket).Get(key)
		if raw == nil {
			return nil
		}
		entry := cacheEntry{}
		if decodeErr := msgpack.Unmarshal(raw, &entry); decodeErr != nil {
			return nil
		}
		cached = &entry
		return nil
	}); err != nil {
		return 0, err
	}
	if cached != nil && cached.Size == info.Size() && cached.ModTime == info.ModTime().UnixNano() {
		cache.hits.Add(1)
		return time.Duration(cached.Duration), nil
	}

	cache.misses.Add(1)
	duration, err := cache.next.Duration(ctx, path)
	if err != nil {
		return 0, err
	}
	payload, err := msgpack.Marshal(cacheEntry{Size: info.Size(), ModTime: info.ModTime().UnixNano(), Duration: int64(duration)})
	if err != nil {
		return 0, err
	}
	if err := cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(durationsBucket).Put(key, payload)
	}); err != nil {
		return 0, fmt.Errorf("store cached duration: %w", err)
	}
	return duration, nil
}
