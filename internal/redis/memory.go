package redis

import (
	"context"
	"sync"
	"time"

	"haul/internal/domain"
)

// MemoryCache is an in-process LoadCache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	load      domain.Load
	expiresAt time.Time
}

// NewMemoryCache creates a MemoryCache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultLoadCacheTTL
	}
	return &MemoryCache{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) GetLoad(ctx context.Context, loadID string) (*domain.Load, error) {
	c.mu.RLock()
	e, ok := c.entries[loadID]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, nil
	}
	load := e.load
	return &load, nil
}

func (c *MemoryCache) SetLoad(ctx context.Context, load *domain.Load) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[load.ID] = memoryEntry{load: *load, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) SetLoadsBatch(ctx context.Context, loads []domain.Load) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	for _, l := range loads {
		c.entries[l.ID] = memoryEntry{load: l, expiresAt: exp}
	}
	return nil
}

func (c *MemoryCache) InvalidateLoad(ctx context.Context, loadID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, loadID)
	return nil
}
