// Package gifcache caches finished still images in Redis. Animations are
// streamed and never cached; stills are small, deterministic and requested
// repeatedly for popular positions, so a byte-for-byte cache is safe.
package gifcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a TTL-bounded store of rendered GIFs keyed by the normalized
// request. A nil *Cache is valid and caches nothing.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to redisURL. An empty URL disables caching and returns a nil
// cache.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Cache{rdb: rdb, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Key derives the cache key from the request parameters that influence the
// output. Rendering is deterministic, so equal keys mean equal bytes.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "gif:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached image, or nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Put stores a finished image.
func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	if c == nil {
		return nil
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}
