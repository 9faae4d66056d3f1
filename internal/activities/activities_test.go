package activities

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"papersum/internal/extract"
	"papersum/internal/models"
	"papersum/internal/pipeline"
	"papersum/internal/providers"
	"papersum/internal/retry"
	"papersum/internal/storage"
	"papersum/internal/summarize"
	"papersum/internal/util"
)

func newTestActivities(t *testing.T) (*Activities, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	policy := retry.Policy{MaxAttempts: 1, Sleep: func(time.Duration) {}}
	llm := providers.NewMockProvider()
	p := pipeline.New(pipeline.Deps{
		Extractor:   extract.New(llm, policy),
		Summarizer:  summarize.New(llm, policy),
		Store:       store,
		ScratchRoot: t.TempDir(),
	})
	return New(p, nil), store
}

func TestStagesRunInSequence(t *testing.T) {
	a, store := newTestActivities(t)
	ctx := context.Background()
	text := "Sparse Widget Networks\n" + strings.Repeat("Sparse widgets route messages across the network. ", 6)

	prep, err := a.PrepareDocumentActivity(ctx, PrepareDocumentInput{Text: text, RequestID: "wf-1"})
	require.NoError(t, err)
	require.Equal(t, models.SourceInline, prep.Source.Kind)
	require.NotEmpty(t, prep.CleanedText)

	sum, err := a.SummarizeTextActivity(ctx, SummarizeTextInput{Text: prep.CleanedText})
	require.NoError(t, err)
	require.Equal(t, "Sparse Widget Networks", sum.Summary.Title)
	require.True(t, strings.HasPrefix(sum.Markdown, "# Sparse Widget Networks"))
	require.Contains(t, sum.HTML, "<h1>")

	uid := int64(42)
	saved, err := a.SaveSummaryActivity(ctx, SaveSummaryInput{Markdown: sum.Markdown, Source: prep.Source, UserID: &uid})
	require.NoError(t, err)
	require.True(t, saved.Persisted)

	list, err := store.ListByUser(ctx, &uid, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, saved.HistoryID, list[0].ID)
}

func TestGuardRejectionIsNonRetryable(t *testing.T) {
	a, _ := newTestActivities(t)
	_, err := a.SummarizeTextActivity(context.Background(), SummarizeTextInput{Text: "too short"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	require.True(t, appErr.NonRetryable())
	require.Equal(t, string(util.KindValidation), appErr.Type())
	require.Contains(t, appErr.Message(), "too short")
}

func TestUntypedFailureIsRetryableWithSafeMessage(t *testing.T) {
	a, _ := newTestActivities(t)
	err := a.toActivityError(context.Background(), "persist", errors.New("dial tcp 10.1.1.1:5432: refused"))

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	require.False(t, appErr.NonRetryable())
	require.NotContains(t, appErr.Message(), "10.1.1.1")
}
