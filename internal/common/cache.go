package common

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// CacheError is returned by Cacher implementations.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

const (
	ErrCacheMiss   CacheError = "cache miss"
	ErrCacheClosed CacheError = "cache closed"
)

// Cacher stores serialized values by key. Implementations must be safe for concurrent use.
type Cacher interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Flush(ctx context.Context) error
}

// Cache is the in-process Cacher backed by go-cache.
type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.Cache.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}

	b, ok := v.([]byte)
	if !ok {
		return nil, ErrCacheMiss
	}

	return b, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte) error {
	c.Cache.Set(key, value, cache.DefaultExpiration)
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.Cache.Delete(key)
	}
	return nil
}

func (c *Cache) DeleteByPrefix(_ context.Context, prefix string) error {
	for key := range c.Cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.Cache.Delete(key)
		}
	}
	return nil
}

func (c *Cache) Flush(_ context.Context) error {
	c.Cache.Flush()
	return nil
}

func CacheKeyComments(postSlug string) string {
	return "comments:" + postSlug
}

const CacheKeyCommentsPrefix = "comments:"

var _ Cacher = (*Cache)(nil)
