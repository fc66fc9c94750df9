package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cnpj-cowork/internal/config"
	"github.com/cnpj-cowork/internal/logger"
	"github.com/cnpj-cowork/internal/search"
)

// Cache stores search results keyed by dataset version and neighborhood
type Cache interface {
	Get(ctx context.Context, key string) (*search.Result, bool, error)
	Set(ctx context.Context, key string, result *search.Result) error
}

// Key builds the cache key of a neighborhood for one dataset version
func Key(version, neighborhood string) string {
	return "cowork:" + version + ":" + neighborhood
}

// New returns the cache selected by cfg.Backend
func New(cfg config.CacheConfig, rc config.RedisConfig) (Cache, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(cfg.TTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		logger.L().Debug("redis_config", "addr", rc.Addr, "db", rc.DB)
		return NewRedis(client, cfg.TTL), nil
	case "none":
		return Nop{}, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(ctx context.Context, key string) (*search.Result, bool, error) {
	return nil, false, nil
}

func (Nop) Set(ctx context.Context, key string, result *search.Result) error {
	return nil
}

type memoryEntry struct {
	result  *search.Result
	expires time.Time
}

// Memory is a process-local cache with per-entry expiry
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryEntry
	now   func() time.Time
}

// NewMemory creates a memory cache; ttl <= 0 keeps entries forever
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, items: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Get(ctx context.Context, key string) (*search.Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.items, key)
		return nil, false, nil
	}
	return e.result, true, nil
}

func (m *Memory) Set(ctx context.Context, key string, result *search.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{result: result}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.items[key] = e
	return nil
}

// Len returns the number of stored entries, expired ones included
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Redis stores JSON encoded results in Redis
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps a Redis client
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Get(ctx context.Context, key string) (*search.Result, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	result, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, result *search.Result) error {
	data, err := encode(result)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func encode(result *search.Result) ([]byte, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*search.Result, error) {
	var result search.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, nil
}
