package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"haul/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// StateStorage is a PostgreSQL implementation of repository.Storage.
// Rows live in the agent_state table, one per key.
type StateStorage struct {
	q querier
}

// NewStateStorage creates a new PostgreSQL state storage.
func NewStateStorage(db *sql.DB) *StateStorage {
	return &StateStorage{q: db}
}

// EnsureSchema creates the agent_state table when it does not exist yet.
func (s *StateStorage) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS agent_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	_, err := s.q.ExecContext(ctx, query)
	return err
}

// Get retrieves a value by key.
func (s *StateStorage) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM agent_state WHERE key = $1`

	var value string
	err := s.q.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}

	return value, nil
}

// Set upserts a value.
func (s *StateStorage) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO agent_state (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`

	_, err := s.q.ExecContext(ctx, query, key, value)
	return err
}

// Delete removes the given keys.
func (s *StateStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query := `DELETE FROM agent_state WHERE key = ANY($1)`

	_, err := s.q.ExecContext(ctx, query, pq.Array(keys))
	return err
}

var _ repository.Storage = (*StateStorage)(nil)
