// Package app builds the process-wide dependencies shared by the API server,
// the Temporal worker and the CLI.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"papersum/internal/acquire"
	"papersum/internal/cache"
	"papersum/internal/config"
	"papersum/internal/extract"
	"papersum/internal/pipeline"
	"papersum/internal/providers"
	"papersum/internal/retry"
	"papersum/internal/storage"
	"papersum/internal/summarize"
)

type App struct {
	Config   config.Config
	Logger   *zap.Logger
	LLM      *providers.Manager
	Store    storage.HistoryStore
	Cache    cache.SummaryCache
	Pipeline *pipeline.Orchestrator
}

// Build wires every collaborator from cfg and migrates the history store.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	llm, err := providers.NewManager(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init providers: %w", err)
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	sc, err := cache.New(ctx, cache.Options{
		Driver:        cfg.CacheDriver,
		TTL:           time.Duration(cfg.CacheTTLMinutes) * time.Minute,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		// The cache is an optimization; run without it.
		logger.Warn("summary cache unavailable", zap.String("driver", cfg.CacheDriver), zap.Error(err))
		sc = cache.Noop{}
	}

	policy := RetryPolicy(cfg)
	timeout := time.Duration(cfg.ProviderTimeoutSecs) * time.Second

	orch := pipeline.New(pipeline.Deps{
		Downloader: acquire.NewDownloader(policy, timeout,
			acquire.WithLogger(logger),
			acquire.WithMaxBytes(int64(cfg.MaxDownloadBytes)),
		),
		Abstracts: acquire.NewAbstractFetcher(cfg.ArxivAPIBase, policy, 30*time.Second, acquire.WithLogger(logger)),
		Extractor: extract.New(llm, policy,
			extract.WithLogger(logger),
			extract.WithStructured(cfg.StructuredExtraction),
		),
		Summarizer: summarize.New(llm, policy,
			summarize.WithLogger(logger),
			summarize.WithMinChars(cfg.SummaryMinChars),
			summarize.WithMaxInputChars(cfg.SummaryMaxInputChars),
			summarize.WithMaxSections(cfg.SummaryMaxSections),
		),
		Store:          store,
		Cache:          sc,
		CacheTTL:       time.Duration(cfg.CacheTTLMinutes) * time.Minute,
		ScratchRoot:    cfg.ScratchRoot,
		MaxUploadBytes: int64(cfg.MaxUploadBytes),
		Logger:         logger,
	})

	logger.Info("papersum initialized",
		zap.Int("llm_providers", llm.LLMCount()),
		zap.Bool("document_capable", llm.SupportsDocuments()),
		zap.String("store", cfg.StoreDriver),
		zap.String("cache", cfg.CacheDriver),
	)
	return &App{Config: cfg, Logger: logger, LLM: llm, Store: store, Cache: sc, Pipeline: orch}, nil
}

// OpenStore opens the configured history store without migrating it.
func OpenStore(ctx context.Context, cfg config.Config) (storage.HistoryStore, error) {
	dsn := cfg.SQLitePath
	if isPostgres(cfg.StoreDriver) {
		dsn = cfg.PostgresURL
	}
	store, err := storage.Open(ctx, cfg.StoreDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

func isPostgres(driver string) bool {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case storage.DriverPostgres, "pg", "postgresql":
		return true
	}
	return false
}

// RetryPolicy is the backoff shared by downloads, remote extraction and
// summarization.
func RetryPolicy(cfg config.Config) retry.Policy {
	p := retry.Default()
	if cfg.RetryMaxAttempts > 0 {
		p.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryBaseDelayMs > 0 {
		p.BaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
	}
	if cfg.RetryMaxDelayMs > 0 {
		p.MaxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
	}
	p.Jitter = 0.1
	return p
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
	_ = a.Logger.Sync()
}
