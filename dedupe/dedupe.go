// Package dedupe remembers inbound message ids so a redelivered message is
// applied only once.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"food-order-bot/apperr"
)

type Deduper interface {
	// Claim records id and reports whether this is its first delivery
	Claim(ctx context.Context, id string) (bool, error)
	// Release forgets id, so a message whose processing failed can be retried
	Release(ctx context.Context, id string) error
}

// Memory keeps claimed ids in process for ttl
type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Claim(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.seen {
		if now.After(exp) {
			delete(m.seen, k)
		}
	}
	if _, ok := m.seen[id]; ok {
		return false, nil
	}
	m.seen[id] = now.Add(m.ttl)
	return true, nil
}

func (m *Memory) Release(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
	return nil
}

// Redis shares claimed ids between instances
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func redisKey(id string) string {
	return fmt.Sprintf("idempotent-key:%s", id)
}

func (r *Redis) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, redisKey(id), "exists", r.ttl).Result()
	if err != nil {
		return false, apperr.External("redis", err)
	}
	return ok, nil
}

func (r *Redis) Release(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, redisKey(id)).Err(); err != nil {
		return apperr.External("redis", err)
	}
	return nil
}
