package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplayStore keeps idempotent responses of the local API in Redis.
type ReplayStore struct {
	client *redis.Client
}

// NewReplayStore creates a new ReplayStore.
func NewReplayStore(client *redis.Client) *ReplayStore {
	return &ReplayStore{client: client}
}

// Load returns the stored response, or nil on a miss.
func (s *ReplayStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Save stores a response for ttl.
func (s *ReplayStore) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, data, ttl).Err()
}
