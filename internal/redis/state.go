package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"haul/internal/repository"
)

const defaultStateKey = "haul:agent:state"

// StateStore keeps the agent's local state in a single Redis hash.
type StateStore struct {
	client *redis.Client
	key    string
}

// NewStateStore creates a new StateStore. An empty key selects the default hash.
func NewStateStore(client *redis.Client, key string) *StateStore {
	if key == "" {
		key = defaultStateKey
	}
	return &StateStore{client: client, key: key}
}

// Get reads a field of the state hash.
func (s *StateStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.HGet(ctx, s.key, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

// Set writes a field of the state hash.
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	return s.client.HSet(ctx, s.key, key, value).Err()
}

// Delete removes fields from the state hash.
func (s *StateStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.HDel(ctx, s.key, keys...).Err()
}
