package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func NewDB(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Ping(ctx context.Context) error {
	if err := d.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (d *DB) Close() {
	if d != nil && d.Pool != nil {
		d.Pool.Close()
	}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS summary_history (
  id BIGSERIAL PRIMARY KEY,
  summary TEXT NOT NULL,
  original_url TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

ALTER TABLE summary_history ADD COLUMN IF NOT EXISTS user_id BIGINT;

CREATE INDEX IF NOT EXISTS idx_summary_history_user ON summary_history(user_id, created_at DESC);
`

// Migrate creates summary_history and summary_runs, and adds user_id to tables created before
// accounts existed. Safe to run repeatedly.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate summary history: %w", err)
	}
	if _, err := d.Pool.Exec(ctx, postgresRunSchema); err != nil {
		return fmt.Errorf("migrate summary runs: %w", err)
	}
	return nil
}
