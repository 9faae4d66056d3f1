package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"papersum/internal/models"
)

func TestHistoryRepoPostgres(t *testing.T) {
	dsn := os.Getenv("PAPERSUM_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("PAPERSUM_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, dsn)
	require.NoError(t, err)
	repo := NewHistoryRepo(db)
	defer repo.Close()
	require.NoError(t, repo.Migrate(ctx))

	uid := int64(987654321)
	rec, err := repo.Insert(ctx, models.NewSummaryHistory{Summary: "pg summary", UserID: &uid})
	require.NoError(t, err)
	require.NotZero(t, rec.ID)

	back, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, "pg summary", back.Summary)
	require.Nil(t, back.OriginalURL)
	require.Equal(t, uid, *back.UserID)

	list, err := repo.ListByUser(ctx, &uid, 5)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	require.Equal(t, rec.ID, list[0].ID)

	_, err = repo.Get(ctx, -1)
	require.ErrorIs(t, err, ErrNotFound)
}
