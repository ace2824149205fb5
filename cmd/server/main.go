package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/pixmix/pixmix-backend/pkg/config"
	"github.com/pixmix/pixmix-backend/pkg/pipeline"
	"github.com/pixmix/pixmix-backend/pkg/rest"
	"github.com/pixmix/pixmix-backend/pkg/tokenregistry"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %s\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("initializing object store connection", "endpoint", cfg.StorageEndpoint, "bucket", cfg.StorageBucket)
	store, err := initializeStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing object store: %w", err)
	}

	logger.Info("initializing token registry connection")
	registryConn, err := initializeRegistryConnection(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing token registry: %w", err)
	}
	registry := tokenregistry.NewMongoRegistry(registryConn, logger)

	transformer := initializeTransformer(cfg)
	dispatcher := initializeDispatcher(cfg)
	verifier := initializeVerifier(cfg)

	pipelineService := pipeline.NewPipelineService(store, transformer, dispatcher, logger)

	router := rest.NewRouter(rest.RouterConfig{
		Logger:         logger,
		Verifier:       verifier,
		Pipeline:       pipelineService,
		Registry:       registry,
		UploadsDir:     cfg.UploadsDir,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	logger.Info("filter backend listening", "port", cfg.Port)
	return router.Start(fmt.Sprintf(":%d", cfg.Port))
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
		slogLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})
	return slog.New(handler)
}
