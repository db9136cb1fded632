package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config selects the cache backend. With EnableRedis and a reachable
// RedisURL the cache is shared across replicas; otherwise it falls back to
// an in-process TTL map.
type Config struct {
	RedisURL    string
	EnableRedis bool
	DefaultTTL  time.Duration
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// Cache stores JSON-encoded derived payloads keyed by filter selection.
// Values are immutable once set; invalidation happens wholesale on dataset
// reload via Flush.
type Cache struct {
	redis      *redis.Client
	defaultTTL time.Duration

	mu     sync.Mutex
	memory map[string]memoryEntry
}

// New builds a cache from config. A broken Redis URL degrades to the
// in-process backend with a log line rather than failing startup.
func New(cfg Config) *Cache {
	c := &Cache{
		defaultTTL: cfg.DefaultTTL,
		memory:     map[string]memoryEntry{},
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = 5 * time.Minute
	}

	if cfg.EnableRedis && cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("[cache] invalid redis url, using in-process cache: %v", err)
			return c
		}
		c.redis = redis.NewClient(opts)
	}
	return c
}

// Get unmarshals the cached payload for key into dest and reports a hit.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key).Bytes()
		if err != nil {
			return false
		}
		return json.Unmarshal(raw, dest) == nil
	}

	c.mu.Lock()
	entry, ok := c.memory[key]
	if ok && time.Now().After(entry.expiresAt) {
		delete(c.memory, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(entry.payload, dest) == nil
}

// Set stores a payload under key for ttl (DefaultTTL when ttl <= 0).
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if c.redis != nil {
		return c.redis.Set(ctx, key, raw, ttl).Err()
	}

	c.mu.Lock()
	c.memory[key] = memoryEntry{payload: raw, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Flush drops every cached payload. Called when a new dataset snapshot is
// swapped in; derived tables from the old snapshot must not be served.
func (c *Cache) Flush(ctx context.Context) {
	if c == nil {
		return
	}

	if c.redis != nil {
		if err := c.redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("[cache] flush failed: %v", err)
		}
		return
	}

	c.mu.Lock()
	c.memory = map[string]memoryEntry{}
	c.mu.Unlock()
}

// Backend names the active backend for the status endpoint.
func (c *Cache) Backend() string {
	if c == nil {
		return "disabled"
	}
	if c.redis != nil {
		return "redis"
	}
	return "memory"
}

// Ping probes the Redis backend; the in-process backend is always healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}
