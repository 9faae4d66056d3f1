package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"papersum/internal/models"
)

var ErrNotFound = errors.New("summary history not found")

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// HistoryStore persists one row per successful summarization. Rows are never
// updated or deleted.
type HistoryStore interface {
	Insert(ctx context.Context, rec models.NewSummaryHistory) (models.SummaryHistory, error)
	// ListByUser returns the newest rows first. A nil user (guest) has no
	// history and gets an empty slice.
	ListByUser(ctx context.Context, userID *int64, limit int) ([]models.SummaryHistory, error)
	Get(ctx context.Context, id int64) (models.SummaryHistory, error)
	Migrate(ctx context.Context) error
	Close() error
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for driver. dsn is a Postgres URL or a SQLite file path.
func Open(ctx context.Context, driver, dsn string) (HistoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite, "sqlite3":
		return OpenSQLite(dsn)
	case DriverPostgres, "pg", "postgresql":
		db, err := NewDB(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return NewHistoryRepo(db), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
