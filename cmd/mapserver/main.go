package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/cycle13/weather-map-service/internal/adapter/http"
	kafkaadapter "github.com/cycle13/weather-map-service/internal/adapter/kafka"
	"github.com/cycle13/weather-map-service/internal/adapter/micaps"
	"github.com/cycle13/weather-map-service/internal/catalog"
	"github.com/cycle13/weather-map-service/internal/compose"
	"github.com/cycle13/weather-map-service/internal/config"
	"github.com/cycle13/weather-map-service/internal/observability"
	"github.com/cycle13/weather-map-service/internal/pipeline"
)

func main() {
	// Load .env when present; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("catalog loaded", "analyses", len(cat.Analyses()))

	client := micaps.NewClient(cfg.MicapsBaseURL, cfg.MicapsTimeout, logger, metrics)
	provider := micaps.NewCachedProvider(client, cfg.MicapsCacheSize, metrics)
	logger.Info("micaps gateway configured",
		"base_url", cfg.MicapsBaseURL,
		"cache_size", cfg.MicapsCacheSize,
		"timeout", cfg.MicapsTimeout)

	composer := compose.NewComposer(cat, provider, clockwork.NewRealClock(), cfg.DefaultCycleHours, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(composer, metrics, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, cat, composer, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scene pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
