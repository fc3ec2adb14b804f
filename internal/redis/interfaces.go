package redis

import (
	"context"

	"haul/internal/domain"
	"haul/internal/repository"
)

// LoadCacheInterface defines the interface for load detail caching.
type LoadCacheInterface interface {
	GetLoad(ctx context.Context, loadID string) (*domain.Load, error)
	SetLoad(ctx context.Context, load *domain.Load) error
	SetLoadsBatch(ctx context.Context, loads []domain.Load) error
	InvalidateLoad(ctx context.Context, loadID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LoadCacheInterface = (*CacheStore)(nil)
	_ LoadCacheInterface = (*MemoryCache)(nil)
	_ repository.Storage = (*StateStore)(nil)
)
