// Package cache holds the short-lived keys used to rate-limit gateway status queries.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle grants at most one Allow per key per ttl window.
type Throttle interface {
	Allow(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type RedisThrottle struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisThrottle(client redis.UniversalClient, prefix string) *RedisThrottle {
	return &RedisThrottle{client: client, prefix: prefix}
}

func (r *RedisThrottle) Allow(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	return r.client.SetNX(ctx, r.prefix+key, 1, ttl).Result()
}

type MemoryThrottle struct {
	mu   sync.Mutex
	now  func() time.Time
	keys map[string]time.Time
}

func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{now: time.Now, keys: make(map[string]time.Time)}
}

func (m *MemoryThrottle) Allow(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if until, ok := m.keys[key]; ok && now.Before(until) {
		return false, nil
	}
	m.keys[key] = now.Add(ttl)

	// drop expired keys once the map grows
	if len(m.keys) > 4096 {
		for k, until := range m.keys {
			if !now.Before(until) {
				delete(m.keys, k)
			}
		}
	}
	return true, nil
}
