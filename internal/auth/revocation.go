package auth

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Revoker remembers logged out token ids until the tokens would have expired
// anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	Revoked(ctx context.Context, jti string) (bool, error)
}

const revokedPrefix = "hydro:revoked:"

type RedisRevoker struct {
	c *redis.Client
}

func NewRedisRevoker(c *redis.Client) *RedisRevoker { return &RedisRevoker{c: c} }

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.c.Set(ctx, revokedPrefix+jti, 1, ttl).Err()
}

func (r *RedisRevoker) Revoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.c.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevoker is used when Redis is disabled. Entries are pruned lazily.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: map[string]time.Time{}}
}

func (m *MemoryRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune(time.Now())
	if until.After(time.Now()) {
		m.revoked[jti] = until
	}
	return nil
}

func (m *MemoryRevoker) Revoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[jti]
	return ok && until.After(time.Now()), nil
}

func (m *MemoryRevoker) prune(now time.Time) {
	for jti, until := range m.revoked {
		if !until.After(now) {
			delete(m.revoked, jti)
		}
	}
}
