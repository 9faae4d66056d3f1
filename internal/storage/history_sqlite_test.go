package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"papersum/internal/models"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	got, err := s.Insert(ctx, models.NewSummaryHistory{Summary: "# T\n\nbody"})
	require.NoError(t, err)
	require.NotZero(t, got.ID)
	require.Nil(t, got.OriginalURL)
	require.Nil(t, got.UserID)

	back, err := s.Get(ctx, got.ID)
	require.NoError(t, err)
	require.Equal(t, "# T\n\nbody", back.Summary)
	require.Nil(t, back.OriginalURL)
	require.Nil(t, back.UserID)
	require.False(t, back.CreatedAt.IsZero())

	_, err = s.Get(ctx, got.ID+100)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListByUser(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	alice, bob := int64(1), int64(2)
	url := "https://arxiv.org/pdf/2401.00001"
	for _, rec := range []models.NewSummaryHistory{
		{Summary: "a1", UserID: &alice},
		{Summary: "b1", UserID: &bob},
		{Summary: "a2", UserID: &alice, OriginalURL: &url},
		{Summary: "guest"},
	} {
		_, err := s.Insert(ctx, rec)
		require.NoError(t, err)
	}

	list, err := s.ListByUser(ctx, &alice, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a2", list[0].Summary)
	require.Equal(t, url, *list[0].OriginalURL)
	require.Equal(t, "a1", list[1].Summary)

	limited, err := s.ListByUser(ctx, &alice, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	guest, err := s.ListByUser(ctx, nil, 10)
	require.NoError(t, err)
	require.NotNil(t, guest)
	require.Empty(t, guest)
}

func TestSQLiteMigrateAddsUserColumn(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE summary_history (id INTEGER PRIMARY KEY, summary TEXT NOT NULL, original_url TEXT, created_at DATETIME NOT NULL)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO summary_history (summary, created_at) VALUES ('old', '2024-01-02 03:04:05')`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	old, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "old", old.Summary)
	require.Nil(t, old.UserID)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteRecordRun(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	uid := int64(5)

	require.NoError(t, s.RecordRun(ctx, RunRecord{
		RequestID: "req-1", UserID: &uid, SourceKind: "url", Extraction: "abstract",
		Provider: "mock", Attempts: 1, Status: RunStatusOK, Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, s.RecordRun(ctx, RunRecord{SourceKind: "inline", Status: RunStatusFailed, ErrorKind: "validation"}))

	ok, err := s.CountRuns(ctx, RunStatusOK)
	require.NoError(t, err)
	require.Equal(t, 1, ok)
	failed, err := s.CountRuns(ctx, RunStatusFailed)
	require.NoError(t, err)
	require.Equal(t, 1, failed)

	var _ RunAuditor = s
	var _ RunAuditor = (*HistoryRepo)(nil)
}
