// Package pipeline runs one summarization request through
// acquire → extract → clean → summarize → persist.
package pipeline

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"papersum/internal/acquire"
	"papersum/internal/cache"
	"papersum/internal/extract"
	"papersum/internal/models"
	"papersum/internal/storage"
	"papersum/internal/summarize"
)

type Stage string

const (
	StageStart     Stage = "start"
	StageAcquire   Stage = "acquire"
	StageExtract   Stage = "extract"
	StageClean     Stage = "clean"
	StageSummarize Stage = "summarize"
	StagePersist   Stage = "persist"
	StageDone      Stage = "done"
	StageFailed    Stage = "failed"
)

// StageEvent records one transition of the request state machine.
type StageEvent struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration"`
	Note     string        `json:"note,omitempty"`
	Err      string        `json:"error,omitempty"`
}

type Upload struct {
	Filename string
	Reader   io.Reader
}

// Request carries at most one usable input. When several are set the upload
// wins, then text, then URL.
type Request struct {
	Text      string
	Upload    *Upload
	URL       string
	UserID    *int64
	RequestID string
}

type Result struct {
	Stage       Stage                  `json:"stage"`
	Source      models.Source          `json:"source"`
	Summary     models.SummaryResult   `json:"summary"`
	Markdown    string                 `json:"markdown"`
	HTML        string                 `json:"html"`
	History     *models.SummaryHistory `json:"history,omitempty"`
	PersistErr  error                  `json:"-"`
	Synthetic   bool                   `json:"synthetic"`
	Extraction  extract.Meta           `json:"extraction"`
	SummaryMeta summarize.Meta         `json:"summary_meta"`
	CacheHit    bool                   `json:"cache_hit"`
	Trace       []StageEvent           `json:"trace"`
}

type Downloader interface {
	Download(ctx context.Context, rawURL string, scratch *acquire.Scratch) (acquire.Download, error)
}

type AbstractSource interface {
	Fetch(ctx context.Context, rawURL string) (string, bool)
}

type Extractor interface {
	Extract(ctx context.Context, path string, kind extract.Kind) (string, extract.Meta, error)
}

type Summarizer interface {
	CheckLength(text string) error
	Summarize(ctx context.Context, text string) (models.SummaryResult, summarize.Meta, error)
}

// Deps are the process-wide collaborators. Abstracts, Store and Cache are
// optional.
type Deps struct {
	Downloader Downloader
	Abstracts  AbstractSource
	Extractor  Extractor
	Summarizer Summarizer
	Store      storage.HistoryStore
	// Audit defaults to Store when the store also keeps the run log.
	Audit          storage.RunAuditor
	Cache          cache.SummaryCache
	CacheTTL       time.Duration
	ScratchRoot    string
	MaxUploadBytes int64
	Logger         *zap.Logger
}

type Orchestrator struct {
	d Deps
}

func New(d Deps) *Orchestrator {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Audit == nil {
		if a, ok := d.Store.(storage.RunAuditor); ok {
			d.Audit = a
		}
	}
	return &Orchestrator{d: d}
}
