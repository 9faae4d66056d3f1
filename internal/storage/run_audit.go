package storage

import (
	"context"
	"fmt"
	"time"
)

// RunRecord is one pipeline request as seen by the audit log. It never
// carries document text or summary content.
type RunRecord struct {
	RequestID  string
	UserID     *int64
	SourceKind string
	Extraction string
	Provider   string
	Model      string
	Attempts   int
	Synthetic  bool
	CacheHit   bool
	Status     string
	ErrorKind  string
	Duration   time.Duration
}

const (
	RunStatusOK     = "ok"
	RunStatusFailed = "failed"
)

// RunAuditor is implemented by stores that keep the summary_runs log.
type RunAuditor interface {
	RecordRun(ctx context.Context, rec RunRecord) error
}

const postgresRunSchema = `
CREATE TABLE IF NOT EXISTS summary_runs (
  id BIGSERIAL PRIMARY KEY,
  request_id TEXT NOT NULL DEFAULT '',
  user_id BIGINT,
  source_kind TEXT NOT NULL,
  extraction TEXT,
  provider TEXT,
  model TEXT,
  attempts INT NOT NULL DEFAULT 0,
  synthetic BOOLEAN NOT NULL DEFAULT FALSE,
  cache_hit BOOLEAN NOT NULL DEFAULT FALSE,
  status TEXT NOT NULL,
  error_kind TEXT,
  duration_ms BIGINT NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const sqliteRunSchema = `
CREATE TABLE IF NOT EXISTS summary_runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  request_id TEXT NOT NULL DEFAULT '',
  user_id INTEGER,
  source_kind TEXT NOT NULL,
  extraction TEXT,
  provider TEXT,
  model TEXT,
  attempts INTEGER NOT NULL DEFAULT 0,
  synthetic INTEGER NOT NULL DEFAULT 0,
  cache_hit INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  error_kind TEXT,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL
);
`

func (r *HistoryRepo) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO summary_runs(request_id, user_id, source_kind, extraction, provider, model, attempts, synthetic, cache_hit, status, error_kind, duration_ms)
VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), $7, $8, $9, $10, NULLIF($11,''), $12)`,
		rec.RequestID, rec.UserID, rec.SourceKind, rec.Extraction, rec.Provider, rec.Model,
		rec.Attempts, rec.Synthetic, rec.CacheHit, rec.Status, rec.ErrorKind, rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert summary run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO summary_runs(request_id, user_id, source_kind, extraction, provider, model, attempts, synthetic, cache_hit, status, error_kind, duration_ms, created_at)
VALUES (?, ?, ?, NULLIF(?,''), NULLIF(?,''), NULLIF(?,''), ?, ?, ?, ?, NULLIF(?,''), ?, ?)`,
		rec.RequestID, nullInt(rec.UserID), rec.SourceKind, rec.Extraction, rec.Provider, rec.Model,
		rec.Attempts, rec.Synthetic, rec.CacheHit, rec.Status, rec.ErrorKind, rec.Duration.Milliseconds(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert summary run: %w", err)
	}
	return nil
}

// CountRuns reports how many runs with the given status were recorded.
func (s *SQLiteStore) CountRuns(ctx context.Context, status string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM summary_runs WHERE status = ?`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count summary runs: %w", err)
	}
	return n, nil
}
