package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"papersum/internal/api"
	"papersum/internal/app"
	"papersum/internal/config"
	"papersum/internal/logging"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("build app", zap.Error(err))
	}
	defer a.Close()

	deps := api.Deps{Pipeline: a.Pipeline, Store: a.Store, Logger: logger}
	if cfg.TemporalAddress != "" {
		tc, err := client.NewLazyClient(client.Options{
			HostPort: cfg.TemporalAddress,
			Logger:   logging.NewTemporal(logger),
		})
		if err != nil {
			logger.Warn("temporal client unavailable, async endpoints disabled", zap.Error(err))
		} else {
			defer tc.Close()
			deps.Temporal = tc
		}
	}

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.NewServer(cfg, deps).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("papersum api listening", zap.String("addr", cfg.APIAddr), zap.String("llm_providers", cfg.LLMProviders))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
