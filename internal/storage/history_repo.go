package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"papersum/internal/models"
)

// HistoryRepo is the Postgres HistoryStore.
type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) Insert(ctx context.Context, rec models.NewSummaryHistory) (models.SummaryHistory, error) {
	out := models.SummaryHistory{Summary: rec.Summary, OriginalURL: rec.OriginalURL, UserID: rec.UserID}
	err := r.db.Pool.QueryRow(ctx, `
INSERT INTO summary_history (summary, original_url, user_id)
VALUES ($1, $2, $3)
RETURNING id, created_at`, rec.Summary, rec.OriginalURL, rec.UserID).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return models.SummaryHistory{}, fmt.Errorf("insert summary history: %w", err)
	}
	return out, nil
}

func (r *HistoryRepo) ListByUser(ctx context.Context, userID *int64, limit int) ([]models.SummaryHistory, error) {
	out := make([]models.SummaryHistory, 0)
	if userID == nil {
		return out, nil
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT id, summary, original_url, created_at, user_id
FROM summary_history
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2`, *userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list summary history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h models.SummaryHistory
		if err := rows.Scan(&h.ID, &h.Summary, &h.OriginalURL, &h.CreatedAt, &h.UserID); err != nil {
			return nil, fmt.Errorf("scan summary history: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary history: %w", err)
	}
	return out, nil
}

func (r *HistoryRepo) Get(ctx context.Context, id int64) (models.SummaryHistory, error) {
	var h models.SummaryHistory
	err := r.db.Pool.QueryRow(ctx, `
SELECT id, summary, original_url, created_at, user_id
FROM summary_history
WHERE id=$1`, id).Scan(&h.ID, &h.Summary, &h.OriginalURL, &h.CreatedAt, &h.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SummaryHistory{}, ErrNotFound
	}
	if err != nil {
		return models.SummaryHistory{}, fmt.Errorf("get summary history: %w", err)
	}
	return h, nil
}

func (r *HistoryRepo) Migrate(ctx context.Context) error {
	return r.db.Migrate(ctx)
}

func (r *HistoryRepo) Close() error {
	r.db.Close()
	return nil
}
