package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/retailhub/portal-gateway/pkg/redis"
)

// ErrTokenNotFound marks a session whose backend token is gone, either
// expired or never stored.
var ErrTokenNotFound = errors.New("backend token not found")

// TokenVault persists the opaque backend token for a session. The token
// never leaves the gateway; browsers only ever hold the gateway's own
// session token.
type TokenVault interface {
	Save(ctx context.Context, sessionID, token string, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisVault stores tokens in Redis so sessions survive a gateway restart.
type RedisVault struct {
	client *redis.Client
	prefix string
}

// NewRedisVault builds a vault over the shared Redis client.
func NewRedisVault(client *redis.Client, prefix string) (*RedisVault, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisVault{client: client, prefix: prefix}, nil
}

func (v *RedisVault) key(sessionID string) string {
	return redis.BuildKey(v.prefix, sessionID)
}

func (v *RedisVault) Save(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	return v.client.Set(ctx, v.key(sessionID), token, ttl)
}

func (v *RedisVault) Load(ctx context.Context, sessionID string) (string, error) {
	token, err := v.client.Get(ctx, v.key(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	return token, nil
}

func (v *RedisVault) Delete(ctx context.Context, sessionID string) error {
	return v.client.Del(ctx, v.key(sessionID))
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryVault is the fallback used when no Redis endpoint is configured.
// Tokens live only as long as the process does.
type MemoryVault struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryVault builds an empty in-process vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (v *MemoryVault) Save(_ context.Context, sessionID, token string, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = v.now().Add(ttl)
	}
	v.mu.Lock()
	v.entries[sessionID] = memoryEntry{token: token, expiresAt: expiresAt}
	v.mu.Unlock()
	return nil
}

func (v *MemoryVault) Load(_ context.Context, sessionID string) (string, error) {
	v.mu.RLock()
	entry, ok := v.entries[sessionID]
	v.mu.RUnlock()
	if !ok {
		return "", ErrTokenNotFound
	}
	if !entry.expiresAt.IsZero() && v.now().After(entry.expiresAt) {
		v.mu.Lock()
		delete(v.entries, sessionID)
		v.mu.Unlock()
		return "", ErrTokenNotFound
	}
	return entry.token, nil
}

func (v *MemoryVault) Delete(_ context.Context, sessionID string) error {
	v.mu.Lock()
	delete(v.entries, sessionID)
	v.mu.Unlock()
	return nil
}
