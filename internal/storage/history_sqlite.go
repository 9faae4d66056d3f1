package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"papersum/internal/models"
	"papersum/internal/util"
)

// SQLiteStore is the file-backed HistoryStore used for single-node installs
// and the CLI.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "history.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY on concurrent inserts.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS summary_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  summary TEXT NOT NULL,
  original_url TEXT,
  created_at DATETIME NOT NULL
);
`

// Migrate creates the table and adds user_id when an older database lacks it.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create summary history: %w", err)
	}
	has, err := s.hasColumn(ctx, "summary_history", "user_id")
	if err != nil {
		return err
	}
	if !has {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE summary_history ADD COLUMN user_id INTEGER`); err != nil {
			return fmt.Errorf("add user_id column: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_summary_history_user ON summary_history(user_id, created_at DESC)`); err != nil {
		return fmt.Errorf("create summary history index: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqliteRunSchema); err != nil {
		return fmt.Errorf("create summary runs: %w", err)
	}
	return nil
}

func (s *SQLiteStore) hasColumn(ctx context.Context, table, column string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(`+table+`)`)
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func (s *SQLiteStore) Insert(ctx context.Context, rec models.NewSummaryHistory) (models.SummaryHistory, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
INSERT INTO summary_history (summary, original_url, created_at, user_id)
VALUES (?, ?, ?, ?)`, rec.Summary, nullString(rec.OriginalURL), now, nullInt(rec.UserID))
	if err != nil {
		return models.SummaryHistory{}, fmt.Errorf("insert summary history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.SummaryHistory{}, fmt.Errorf("read summary history id: %w", err)
	}
	return models.SummaryHistory{
		ID:          id,
		Summary:     rec.Summary,
		OriginalURL: rec.OriginalURL,
		CreatedAt:   now,
		UserID:      rec.UserID,
	}, nil
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID *int64, limit int) ([]models.SummaryHistory, error) {
	out := make([]models.SummaryHistory, 0)
	if userID == nil {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, summary, original_url, created_at, user_id
FROM summary_history
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`, *userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list summary history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary history: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (models.SummaryHistory, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, summary, original_url, created_at, user_id
FROM summary_history
WHERE id = ?`, id)
	h, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SummaryHistory{}, ErrNotFound
	}
	return h, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(row scanner) (models.SummaryHistory, error) {
	var (
		h   models.SummaryHistory
		url sql.NullString
		uid sql.NullInt64
	)
	if err := row.Scan(&h.ID, &h.Summary, &url, &h.CreatedAt, &uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return h, err
		}
		return h, fmt.Errorf("scan summary history: %w", err)
	}
	if url.Valid {
		v := url.String
		h.OriginalURL = &v
	}
	if uid.Valid {
		v := uid.Int64
		h.UserID = &v
	}
	return h, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
