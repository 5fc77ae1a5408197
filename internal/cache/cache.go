// Package cache is a read-through Redis cache-aside layer for the last
// interactive message id the adapter needs per Uid (to edit/replace a
// previous keyboard rather than send a new message). Grounded on the
// teacher's internal/cache/redis_cache.go: same Get/Set/TTL shape, same
// stampede concern, but with golang.org/x/sync/singleflight collapsing
// concurrent loads for one key instead of the teacher's SETNX distributed
// lock — this process is the sole writer (spec.md §5's single-writer
// assumption), so a local in-process dedupe is enough.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by Get when key is absent.
var ErrMiss = errors.New("cache: miss")

// Cache wraps a go-redis client with JSON (de)serialization and
// singleflight-protected read-through loading.
type Cache struct {
	client *redis.Client
	group  singleflight.Group
}

// New builds a Cache against addr, authenticating with password (empty
// disables auth) and selecting db.
func New(addr, password string, db int) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Close closes the underlying Redis client.
func (c *Cache) Close() error { return c.client.Close() }

// Ping checks Redis connectivity, for the /ready handler.
func (c *Cache) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }

// Get reads key and unmarshals it into dest, returning ErrMiss if absent.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache: get %s: %w", key, err)
	}
	return json.Unmarshal(val, dest)
}

// Set stores value under key with the given TTL (0 means no expiry).
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// GetOrLoad reads key, and on a miss calls load exactly once per key even
// under concurrent callers (singleflight), caching the result with ttl
// before returning it.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, dest any, load func(ctx context.Context) (any, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrMiss) {
		return err
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, val, ttl); err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: marshal loaded value for %s: %w", key, err)
	}
	return json.Unmarshal(data, dest)
}

// LastMessageKey is the cache key for a Uid's last interactive message id.
func LastMessageKey(uid int64) string {
	return fmt.Sprintf("voicematch:last_msg:%d", uid)
}
