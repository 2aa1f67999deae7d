// Package cache provides a process-wide cache with an in-memory default
// backend and an optional redis backend for multi-instance deployments.
// Values are serialized with msgpack.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/TwiN/gocache/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the interface backends must implement. Values are opaque byte
// slices, serialization is handled by the package-level helpers.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, expiration time.Duration) error
	Delete(key string) error
}

var cacheCache Cache = newMemoryCache()

// SetCache replaces the cache backend.
func SetCache(c Cache) {
	cacheCache = c
}

// Key joins the passed components into a single cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Set stores value under key with the given expiration.
func Set(key string, value any, expiration time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}
	return cacheCache.Set(key, data, expiration)
}

// Get retrieves the value stored under key into target. The returned bool
// indicates whether the key was present.
func Get(key string, target any) (bool, error) {
	data, ok, err := cacheCache.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err = msgpack.Unmarshal(data, target); err != nil {
		return false, errors.WithStack(err)
	}
	return true, nil
}

// Delete removes the value stored under key.
func Delete(key string) error {
	return cacheCache.Delete(key)
}

type memoryCache struct {
	c *gocache.Cache
}

func newMemoryCache() memoryCache {
	return memoryCache{
		c: gocache.NewCache().WithMaxSize(gocache.DefaultMaxSize).WithEvictionPolicy(gocache.LeastRecentlyUsed),
	}
}

func (m memoryCache) Get(key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false, errors.New("cache: unexpected entry type")
	}
	return data, true, nil
}

func (m memoryCache) Set(key string, value []byte, expiration time.Duration) error {
	m.c.SetWithTTL(key, value, expiration)
	return nil
}

func (m memoryCache) Delete(key string) error {
	m.c.Delete(key)
	return nil
}

type redisCache struct {
	client *redis.Client
}

// UseRedisCache switches the backend to the given redis instance. It pings
// the server once to surface connection problems at boot.
func UseRedisCache(options *redis.Options) error {
	client := redis.NewClient(options)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return errors.Wrap(err, "connecting to redis")
	}
	SetCache(redisCache{client: client})
	return nil
}

func (r redisCache) Get(key string) ([]byte, bool, error) {
	data, err := r.client.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	return data, true, nil
}

func (r redisCache) Set(key string, value []byte, expiration time.Duration) error {
	return errors.WithStack(r.client.Set(context.Background(), key, value, expiration).Err())
}

func (r redisCache) Delete(key string) error {
	return errors.WithStack(r.client.Del(context.Background(), key).Err())
}
