package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"haul/internal/config"
	"haul/internal/middleware"
	internalRedis "haul/internal/redis"
	"haul/internal/repository"
	"haul/internal/repository/postgres"
)

// Stores holds the persistence backends selected by configuration.
type Stores struct {
	State  repository.Storage
	Loads  internalRedis.LoadCacheInterface
	Replay middleware.ReplayStore

	db          *sql.DB
	redisClient *redis.Client
}

// NewStores opens the state storage, the load cache and the replay store.
// Redis is dialled once and shared when any of them selects it.
func NewStores(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application) (*Stores, error) {
	s := &Stores{}

	useRedis := cfg.Storage.Backend == "redis" || cfg.Loads.CacheBackend == "redis"
	if useRedis {
		client, err := NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			return nil, err
		}
		s.redisClient = client
	}

	switch cfg.Storage.Backend {
	case "file":
		s.State = repository.NewFileStorage(cfg.Storage.Path)
	case "memory":
		s.State = repository.NewMemoryStorage()
	case "redis":
		s.State = internalRedis.NewStateStore(s.redisClient, "")
	case "postgres":
		db, err := NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.db = db

		store := postgres.NewStateStorage(db)
		if err := store.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to prepare agent_state: %w", err)
		}
		s.State = store
	default:
		s.Close()
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Loads.CacheBackend == "redis" {
		s.Loads = internalRedis.NewCacheStore(s.redisClient, cfg.Loads.CacheTTL)
	} else {
		s.Loads = internalRedis.NewMemoryCache(cfg.Loads.CacheTTL)
	}

	if s.redisClient != nil {
		s.Replay = internalRedis.NewReplayStore(s.redisClient)
	} else {
		s.Replay = middleware.NewMemoryReplayStore()
	}

	return s, nil
}

// Close releases the database and Redis connections.
func (s *Stores) Close() {
	if s.db != nil {
		s.db.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
}
