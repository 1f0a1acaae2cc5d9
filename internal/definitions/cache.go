package definitions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores definitions by key. A miss is (zero, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (Definition, bool, error)
	Set(ctx context.Context, key string, d Definition) error
}

// MemoryCache is a process-local Cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Definition
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Definition)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (Definition, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.entries[key]
	return d, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, d Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = d
	return nil
}

// Len reports the number of cached definitions.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// RedisConfig addresses a Redis server used as a shared definition cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache keeps definitions in Redis as JSON with an expiry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisCacheWithClient(client, cfg.TTL), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) (Definition, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Definition{}, false, nil
	}
	if err != nil {
		return Definition{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		return Definition{}, false, fmt.Errorf("decode cached definition: %w", err)
	}
	return d, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, d Definition) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode definition: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
