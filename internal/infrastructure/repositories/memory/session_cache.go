package memory

import (
	"context"
	"sync"
	"time"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
)

type revocationEntry struct {
	instant   time.Time
	expiresAt time.Time
}

type MemorySessionCache struct {
	entries map[domain.UserID]revocationEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewMemorySessionCache is the single-instance fallback when Redis is
// disabled or unreachable.
func NewMemorySessionCache(ttl time.Duration) ports.SessionCache {
	return &MemorySessionCache{
		entries: make(map[domain.UserID]revocationEntry),
		ttl:     ttl,
	}
}

func (c *MemorySessionCache) GetRevocationInstant(ctx context.Context, uid domain.UserID) (time.Time, bool, error) {
	c.mu.RLock()
	entry, exists := c.entries[uid]
	c.mu.RUnlock()

	if !exists {
		return time.Time{}, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, uid)
		c.mu.Unlock()
		return time.Time{}, false, nil
	}
	return entry.instant, true, nil
}

func (c *MemorySessionCache) SetRevocationInstant(ctx context.Context, uid domain.UserID, instant time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[uid] = revocationEntry{
		instant:   instant,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

func (c *MemorySessionCache) Invalidate(ctx context.Context, uid domain.UserID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, uid)
	return nil
}

func (c *MemorySessionCache) HealthCheck(ctx context.Context) error {
	return nil
}

func (c *MemorySessionCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[domain.UserID]revocationEntry)
	return nil
}
