package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS drafts (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const (
	postgresGetSQL    = `SELECT value FROM drafts WHERE key = $1;`
	postgresRemoveSQL = `DELETE FROM drafts WHERE key = $1;`
	postgresKeysSQL   = `SELECT key FROM drafts WHERE left(key, $1) = $2 ORDER BY key COLLATE "C";`
	postgresUpsertSQL = `
INSERT INTO drafts (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET
    value = EXCLUDED.value,
    updated_at = NOW();`
)

// PostgresStore persists drafts in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool. The drafts table must exist; see EnsureSchema.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgres connects to dsn and creates the drafts table if missing.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres store: dsn required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	store := NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the drafts table.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("postgres store: nil pool")
	}
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create drafts table: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(key); err != nil {
		return "", false, err
	}
	var value string
	err := s.pool.QueryRow(ctx, postgresGetSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("postgres store get: %w", err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	if err := s.check(key); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, postgresUpsertSQL, key, value); err != nil {
		return fmt.Errorf("postgres store set: %w", err)
	}
	return nil
}

// Remove deletes key.
func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	if err := s.check(key); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, postgresRemoveSQL, key); err != nil {
		return fmt.Errorf("postgres store remove: %w", err)
	}
	return nil
}

// Keys lists keys with the given prefix.
func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres store: nil pool")
	}
	rows, err := s.pool.Query(ctx, postgresKeysSQL, len([]rune(prefix)), prefix)
	if err != nil {
		return nil, fmt.Errorf("postgres store keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres store keys: %w", err)
	}
	return keys, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Pool exposes the underlying pool.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) check(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if s.pool == nil {
		return fmt.Errorf("postgres store: nil pool")
	}
	return nil
}
