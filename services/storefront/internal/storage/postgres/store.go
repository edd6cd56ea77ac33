package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/database"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations for the client_state table.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies the store's schema.
func Migrate(ctx context.Context, db database.DBTX, logger *slog.Logger) error {
	return database.RunMigrations(ctx, db, Migrations(), logger)
}

// Store implements storage.Store on a PostgreSQL table keyed by
// (namespace, key).
type Store struct {
	db  database.DBTX
	ttl time.Duration
}

// NewStore creates a PostgreSQL-backed store. Rows older than ttl are
// treated as absent; a zero ttl keeps rows forever.
func NewStore(db database.DBTX, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl}
}

// Get reads a value.
func (s *Store) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := storage.CheckKey(namespace, key); err != nil {
		return "", false, err
	}

	query := `SELECT value, updated_at FROM client_state WHERE namespace = $1 AND key = $2`

	var (
		value     string
		updatedAt time.Time
	)
	err := s.db.QueryRow(ctx, query, namespace, key).Scan(&value, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select client state %s: %w", key, err)
	}

	if s.ttl > 0 && time.Since(updatedAt) > s.ttl {
		return "", false, nil
	}
	return value, true, nil
}

// Set upserts a value.
func (s *Store) Set(ctx context.Context, namespace, key, value string) error {
	if err := storage.CheckKey(namespace, key); err != nil {
		return err
	}

	query := `
		INSERT INTO client_state (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.Exec(ctx, query, namespace, key, value); err != nil {
		return fmt.Errorf("upsert client state %s: %w", key, err)
	}
	return nil
}

// Remove deletes a value.
func (s *Store) Remove(ctx context.Context, namespace, key string) error {
	if err := storage.CheckKey(namespace, key); err != nil {
		return err
	}

	query := `DELETE FROM client_state WHERE namespace = $1 AND key = $2`

	if _, err := s.db.Exec(ctx, query, namespace, key); err != nil {
		return fmt.Errorf("delete client state %s: %w", key, err)
	}
	return nil
}

// Ping runs a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Purge deletes rows not written within the TTL and returns how many were
// removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	query := `DELETE FROM client_state WHERE updated_at < $1`

	tag, err := s.db.Exec(ctx, query, time.Now().UTC().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("purge client state: %w", err)
	}
	return tag.RowsAffected(), nil
}
