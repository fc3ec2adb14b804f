package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"haul/internal/domain"
)

// DefaultLoadCacheTTL bounds how stale a cached load detail may be.
const DefaultLoadCacheTTL = 60 * time.Second

const loadCachePrefix = "cache:load:"

// CacheStore handles load detail caching in Redis.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultLoadCacheTTL
	}
	return &CacheStore{client: client, ttl: ttl}
}

// GetLoad retrieves a load from cache. A miss returns nil, nil.
func (s *CacheStore) GetLoad(ctx context.Context, loadID string) (*domain.Load, error) {
	data, err := s.client.Get(ctx, loadCachePrefix+loadID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var load domain.Load
	if err := json.Unmarshal(data, &load); err != nil {
		return nil, err
	}
	return &load, nil
}

// SetLoad stores a load in cache.
func (s *CacheStore) SetLoad(ctx context.Context, load *domain.Load) error {
	data, err := json.Marshal(load)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, loadCachePrefix+load.ID, data, s.ttl).Err()
}

// SetLoadsBatch stores multiple loads in cache using a pipeline.
func (s *CacheStore) SetLoadsBatch(ctx context.Context, loads []domain.Load) error {
	if len(loads) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for i := range loads {
		data, err := json.Marshal(&loads[i])
		if err != nil {
			continue // Skip invalid entries
		}
		pipe.Set(ctx, loadCachePrefix+loads[i].ID, data, s.ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateLoad removes a load from cache.
func (s *CacheStore) InvalidateLoad(ctx context.Context, loadID string) error {
	return s.client.Del(ctx, loadCachePrefix+loadID).Err()
}
