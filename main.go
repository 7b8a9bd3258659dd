package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"weather-forecast-service/internal/config"
	"weather-forecast-service/internal/db"
	"weather-forecast-service/internal/forecast"
	httpserver "weather-forecast-service/internal/http"
	"weather-forecast-service/internal/observability"
	"weather-forecast-service/internal/openmeteo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := observability.NewLogger()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection error", zap.Error(err))
	}
	defer store.Close()

	provider := openmeteo.New(cfg.ProviderURL, cfg.RequestTimeout, cfg.ProviderRetries, logger)
	resolver := forecast.NewResolver(store, cfg.CoordEpsilon, logger)
	writer := forecast.NewSnapshotWriter(store, logger)
	svc := forecast.NewService(provider, resolver, writer, logger)

	srv := httpserver.New(cfg, svc, store, logger)
	logger.Info("REST API listening", zap.String("addr", cfg.ListenAddr()))

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
