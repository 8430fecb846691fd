package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soyj/pairbook/common/retry"
)

// PostgresStore keeps snapshots in a single key-value table. Intended for
// deployments where the service does not own its disk (the snapshots are tiny,
// so a kv table is all the schema we need).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database at dsn and ensures the snapshots
// table exists. The initial connect is retried with backoff so the service
// survives starting before its database does.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	err = retry.Do(ctx, retry.Config{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: 15 * time.Second}, func() error {
		return pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			key TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure snapshots table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Read returns the snapshot under key, or found=false before the first write.
func (s *PostgresStore) Read(ctx context.Context, key Key) ([]byte, bool, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM snapshots WHERE key = $1`, string(key)).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return data, true, nil
}

// Write upserts the snapshot under key.
func (s *PostgresStore) Write(ctx context.Context, key Key, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO snapshots (key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, string(key), data)
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
