package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a single arbgate.kv_entries table.
//
// TTL discipline: expired rows are invisible to every read path and are
// removed opportunistically when a read lands on one. There is no sweeper in
// the core; bulk cleanup is an operational concern (cron'd DELETE).
type PostgresStore struct {
	pool *pgxpool.Pool

	// timeout bounds every store call so a slow database surfaces as a
	// storage error instead of hanging the request.
	timeout time.Duration
}

// NewPostgresStore creates a Postgres-backed store. timeout <= 0 defaults
// to 3s.
func NewPostgresStore(pool *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &PostgresStore{pool: pool, timeout: timeout}
}

// EnsureSchema creates the kv table if it does not exist. Called once at
// startup; real deployments may manage the schema externally instead.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv_entries (
			k          text PRIMARY KEY,
			v          bytea NOT NULL,
			expires_at timestamptz
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: ensure schema: %v", ErrStore, err)
	}
	return nil
}

func (s *PostgresStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var v []byte
	err := s.pool.QueryRow(ctx, `
		SELECT v FROM kv_entries
		WHERE k = $1 AND (expires_at IS NULL OR expires_at > now())
	`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get: %v", ErrStore, err)
	}
	return v, true, nil
}

// Put implements Store.
func (s *PostgresStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var err error
	if ttl > 0 {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO kv_entries (k, v, expires_at)
			VALUES ($1, $2, now() + $3)
			ON CONFLICT (k) DO UPDATE SET v = excluded.v, expires_at = excluded.expires_at
		`, key, value, ttl)
	} else {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO kv_entries (k, v, expires_at)
			VALUES ($1, $2, NULL)
			ON CONFLICT (k) DO UPDATE SET v = excluded.v, expires_at = excluded.expires_at
		`, key, value)
	}
	if err != nil {
		return fmt.Errorf("%w: put: %v", ErrStore, err)
	}
	return nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_entries WHERE k = $1`, key); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrStore, err)
	}
	return nil
}

// GetDelete implements Store. DELETE ... RETURNING makes the read-and-consume
// a single statement, so concurrent redemptions of the same key cannot both
// succeed.
func (s *PostgresStore) GetDelete(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var v []byte
	err := s.pool.QueryRow(ctx, `
		DELETE FROM kv_entries
		WHERE k = $1 AND (expires_at IS NULL OR expires_at > now())
		RETURNING v
	`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: getdelete: %v", ErrStore, err)
	}
	return v, true, nil
}

// CompareAndDelete implements Store.
func (s *PostgresStore) CompareAndDelete(ctx context.Context, key string, expect []byte) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		DELETE FROM kv_entries
		WHERE k = $1 AND v = $2 AND (expires_at IS NULL OR expires_at > now())
	`, key, expect)
	if err != nil {
		return false, fmt.Errorf("%w: compareanddelete: %v", ErrStore, err)
	}
	return tag.RowsAffected() > 0, nil
}
