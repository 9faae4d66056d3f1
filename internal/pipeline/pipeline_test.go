package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"papersum/internal/acquire"
	"papersum/internal/cache"
	"papersum/internal/extract"
	"papersum/internal/models"
	"papersum/internal/providers"
	"papersum/internal/retry"
	"papersum/internal/storage"
	"papersum/internal/summarize"
	"papersum/internal/util"
)

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Sleep: func(time.Duration) {}}
}

func paperText() string {
	var b strings.Builder
	b.WriteString("A Study of Integrals in Widget Theory\n")
	for b.Len() < 2500 {
		b.WriteString("Widget theory studies integrals and measurement of quantum widgets. ")
	}
	b.WriteString("\n$$\\int_0^1 x dx$$\n")
	for b.Len() < 5000 {
		b.WriteString("Measurement results confirm the integral behaviour of widgets. ")
	}
	return b.String()
}

func openStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	s, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mockDeps(t *testing.T) Deps {
	llm := providers.NewMockProvider()
	return Deps{
		Extractor:   extract.New(llm, testPolicy()),
		Summarizer:  summarize.New(llm, testPolicy()),
		ScratchRoot: t.TempDir(),
	}
}

type failingStore struct {
	storage.HistoryStore
}

func (failingStore) Insert(context.Context, models.NewSummaryHistory) (models.SummaryHistory, error) {
	return models.SummaryHistory{}, errors.New("disk full")
}

type countingSummarizer struct {
	calls int
	res   models.SummaryResult
	meta  summarize.Meta
}

func (c *countingSummarizer) CheckLength(text string) error {
	return summarize.New(nil, testPolicy()).CheckLength(text)
}

func (c *countingSummarizer) Summarize(context.Context, string) (models.SummaryResult, summarize.Meta, error) {
	c.calls++
	return c.res, c.meta, nil
}

type stubDownloader struct {
	err   error
	calls int
}

func (d *stubDownloader) Download(_ context.Context, _ string, scratch *acquire.Scratch) (acquire.Download, error) {
	d.calls++
	if d.err != nil {
		return acquire.Download{}, d.err
	}
	p := scratch.Path("download.pdf")
	return acquire.Download{Path: p, Attempts: 1}, os.WriteFile(p, []byte("%PDF-1.4"), 0o644)
}

type stubAbstracts struct {
	text string
}

func (a stubAbstracts) Fetch(context.Context, string) (string, bool) {
	return a.text, a.text != ""
}

type stubExtractor struct {
	text string
	err  error
}

func (e stubExtractor) Extract(context.Context, string, extract.Kind) (string, extract.Meta, error) {
	return e.text, extract.Meta{Method: extract.MethodLocal}, e.err
}

func TestRunInlineTextEndToEnd(t *testing.T) {
	store := openStore(t)
	d := mockDeps(t)
	d.Store = store

	res, err := New(d).Run(context.Background(), Request{Text: paperText(), RequestID: "req-1"})
	require.NoError(t, err)
	require.Equal(t, StageDone, res.Stage)
	require.Contains(t, res.Summary.Summary, `$$\int_0^1 x dx$$`)
	require.Contains(t, res.HTML, `$$\int_0^1 x dx$$`)
	require.NotEmpty(t, res.Summary.Title)
	require.GreaterOrEqual(t, len(res.Summary.Keywords), 5)
	require.LessOrEqual(t, len(res.Summary.Keywords), 7)
	require.False(t, res.Synthetic)
	require.NoError(t, res.PersistErr)

	require.NotNil(t, res.History)
	require.Nil(t, res.History.OriginalURL)
	stored, err := store.Get(context.Background(), res.History.ID)
	require.NoError(t, err)
	require.Nil(t, stored.OriginalURL)
	require.Equal(t, res.Markdown, stored.Summary)
}

func TestRunPersistFailureKeepsSummary(t *testing.T) {
	d := mockDeps(t)
	d.Store = failingStore{}

	res, err := New(d).Run(context.Background(), Request{Text: paperText()})
	require.NoError(t, err)
	require.Equal(t, StageDone, res.Stage)
	require.NotEmpty(t, res.HTML)
	require.Nil(t, res.History)
	require.Error(t, res.PersistErr)
	require.Equal(t, util.KindPersistence, util.KindOf(res.PersistErr))
}

func TestRunGuardRejection(t *testing.T) {
	res, err := New(mockDeps(t)).Run(context.Background(), Request{Text: strings.Repeat("x", 99)})
	require.Error(t, err)
	require.Equal(t, util.KindValidation, util.KindOf(err))
	require.Equal(t, StageFailed, res.Stage)
	require.Equal(t, StageSummarize, res.Trace[len(res.Trace)-1].Stage)
}

func TestRunCacheHitSkipsBackend(t *testing.T) {
	sum := &countingSummarizer{res: models.SummaryResult{Title: "T", Summary: "S", Keywords: []string{"a", "b", "c", "d", "e"}}}
	d := mockDeps(t)
	d.Summarizer = sum
	d.Cache = cache.NewMemory(time.Minute)
	o := New(d)

	first, err := o.Run(context.Background(), Request{Text: paperText()})
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := o.Run(context.Background(), Request{Text: paperText()})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Summary, second.Summary)
	require.Equal(t, 1, sum.calls)
}

func TestRunSyntheticResultIsNotCached(t *testing.T) {
	sum := &countingSummarizer{
		res:  summarize.Synthetic(paperText()),
		meta: summarize.Meta{Synthetic: true, Format: summarize.FormatSynthetic},
	}
	d := mockDeps(t)
	d.Summarizer = sum
	d.Cache = cache.NewMemory(time.Minute)
	o := New(d)

	for i := 0; i < 2; i++ {
		res, err := o.Run(context.Background(), Request{Text: paperText()})
		require.NoError(t, err)
		require.True(t, res.Synthetic)
		require.False(t, res.CacheHit)
	}
	require.Equal(t, 2, sum.calls)
}

func TestRunURLFallsBackToAbstract(t *testing.T) {
	abstract := "Sparse Widgets\n\n" + strings.Repeat("We study sparse widgets at scale. ", 5)
	d := mockDeps(t)
	d.Downloader = &stubDownloader{err: util.E(util.KindValidation, "download", "The URL does not point to a PDF document.", nil)}
	d.Abstracts = stubAbstracts{text: abstract}
	store := openStore(t)
	d.Store = store

	url := "https://arxiv.org/abs/2401.01234"
	res, err := New(d).Run(context.Background(), Request{URL: url})
	require.NoError(t, err)
	require.Equal(t, extract.MethodAbstract, res.Extraction.Method)
	require.NotNil(t, res.History)
	require.Equal(t, url, *res.History.OriginalURL)
}

func TestRunURLEmptyExtractionFallsBackToAbstract(t *testing.T) {
	d := mockDeps(t)
	dl := &stubDownloader{}
	d.Downloader = dl
	d.Extractor = stubExtractor{err: util.E(util.KindExtractionEmpty, "extract", "scanned", util.ErrNoExtractableText)}
	d.Abstracts = stubAbstracts{text: "Title\n\n" + strings.Repeat("abstract words here. ", 8)}

	res, err := New(d).Run(context.Background(), Request{URL: "https://arxiv.org/pdf/2401.01234"})
	require.NoError(t, err)
	require.Equal(t, 1, dl.calls)
	require.Equal(t, extract.MethodAbstract, res.Extraction.Method)
}

func TestRunURLWithoutFallbackFails(t *testing.T) {
	d := mockDeps(t)
	d.Downloader = &stubDownloader{err: util.E(util.KindValidation, "download", "The URL does not point to a PDF document.", nil)}
	d.Abstracts = stubAbstracts{}

	res, err := New(d).Run(context.Background(), Request{URL: "https://example.com/page"})
	require.Error(t, err)
	require.Equal(t, StageFailed, res.Stage)
	require.Equal(t, "The URL does not point to a PDF document.", util.UserMessage(err))
}

func TestRunUntypedErrorGetsSafeMessage(t *testing.T) {
	d := mockDeps(t)
	d.Downloader = &stubDownloader{}
	d.Extractor = stubExtractor{err: errors.New("pq: connection refused at 10.0.0.3")}

	_, err := New(d).Run(context.Background(), Request{URL: "https://example.com/a.pdf"})
	require.Error(t, err)
	require.NotContains(t, util.UserMessage(err), "10.0.0.3")
}

func TestRunUploadRemovesScratch(t *testing.T) {
	d := mockDeps(t)
	root := d.ScratchRoot

	res, err := New(d).Run(context.Background(), Request{
		Upload: &Upload{Filename: "../../My Paper.txt", Reader: strings.NewReader(paperText())},
		URL:    "https://ignored.example/x.pdf",
	})
	require.NoError(t, err)
	require.Equal(t, models.SourceUpload, res.Source.Kind)
	require.Equal(t, extract.MethodText, res.Extraction.Method)
	require.Nil(t, res.Source.OriginalURL())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRunRejectsDisallowedUpload(t *testing.T) {
	d := mockDeps(t)
	_, err := New(d).Run(context.Background(), Request{Upload: &Upload{Filename: "paper.docx", Reader: strings.NewReader("x")}})
	require.Equal(t, util.KindValidation, util.KindOf(err))

	entries, err := os.ReadDir(d.ScratchRoot)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSelectSourcePrecedence(t *testing.T) {
	up := &Upload{Filename: "a.pdf", Reader: strings.NewReader("x")}

	src, err := SelectSource(Request{Upload: up, Text: "t", URL: "u"})
	require.NoError(t, err)
	require.Equal(t, models.SourceUpload, src.Kind)

	src, err = SelectSource(Request{Text: "t", URL: "u"})
	require.NoError(t, err)
	require.Equal(t, models.SourceInline, src.Kind)

	src, err = SelectSource(Request{Text: "   ", URL: " https://x/y.pdf "})
	require.NoError(t, err)
	require.Equal(t, models.SourceURL, src.Kind)
	require.Equal(t, "https://x/y.pdf", src.URL)

	_, err = SelectSource(Request{})
	require.Equal(t, util.KindValidation, util.KindOf(err))
}

func TestRunRecordsAuditRows(t *testing.T) {
	store := openStore(t)
	d := mockDeps(t)
	d.Store = store
	o := New(d)

	_, err := o.Run(context.Background(), Request{Text: paperText(), RequestID: "req-ok"})
	require.NoError(t, err)
	_, err = o.Run(context.Background(), Request{Text: "short"})
	require.Error(t, err)

	ok, err := store.CountRuns(context.Background(), storage.RunStatusOK)
	require.NoError(t, err)
	require.Equal(t, 1, ok)
	failed, err := store.CountRuns(context.Background(), storage.RunStatusFailed)
	require.NoError(t, err)
	require.Equal(t, 1, failed)
}
