// FilePath: internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by a Store when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store holds encoded values with an expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Observer is notified about hits and misses. Optional.
type Observer interface {
	CacheHit(namespace string)
	CacheMiss(namespace string)
}

// Cache memoizes JSON encodable results. Concurrent callers for the same key
// share one computation.
type Cache struct {
	store     Store
	namespace string
	group     singleflight.Group
	observer  Observer
}

func New(store Store, namespace string, observer Observer) *Cache {
	return &Cache{store: store, namespace: namespace, observer: observer}
}

// GetOrCompute decodes the cached value for key into out, or runs fn, stores
// its result and decodes that into out. Store failures are logged and the
// value is computed directly.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, out interface{}, fn func(ctx context.Context) (interface{}, error)) error {
	fullKey := c.namespace + ":" + key

	if data, err := c.store.Get(ctx, fullKey); err == nil {
		if err := json.Unmarshal(data, out); err == nil {
			c.hit()
			return nil
		}
		nuts.L.Warnf("[Cache] Discarding undecodable entry %s", fullKey)
	} else if !errors.Is(err, ErrMiss) {
		nuts.L.Warnf("[Cache] Get %s failed: %v", fullKey, err)
	}
	c.miss()

	data, err, _ := c.group.Do(fullKey, func() (interface{}, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache value: %w", err)
		}
		if err := c.store.Set(ctx, fullKey, encoded, ttl); err != nil {
			nuts.L.Warnf("[Cache] Set %s failed: %v", fullKey, err)
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(data.([]byte), out)
}

// Close releases the backing store.
func (c *Cache) Close() error {
	return c.store.Close()
}

func (c *Cache) hit() {
	if c.observer != nil {
		c.observer.CacheHit(c.namespace)
	}
}

func (c *Cache) miss() {
	if c.observer != nil {
		c.observer.CacheMiss(c.namespace)
	}
}
