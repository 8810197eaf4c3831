package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/humanbench/internal/api"
	"github.com/mcoot/humanbench/internal/config"
	"github.com/mcoot/humanbench/internal/factory"
	"github.com/mcoot/humanbench/internal/storage/postgres"
)

func main() {
	// Configuration comes from the environment, optionally seeded by .env
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger, os.Args[1:]); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run serves until a shutdown signal arrives; deferred cleanup always runs
func run(cfg config.Config, logger *slog.Logger, args []string) error {
	// `server migrate` applies schema migrations and exits
	if len(args) > 0 && args[0] == "migrate" {
		return migrate(cfg, logger)
	}

	// Create application factory
	app, err := factory.New(factory.ConfigFrom(cfg, logger))
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Metrics:            app.Metrics,
		Clock:              app.Clock,
		Store:              app.Storage,
		AuthService:        app.AuthService,
		ScoringService:     app.ScoringService,
		RankingService:     app.RankingService,
		RoomsService:       app.RoomsService,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
		AuthRateLimitBurst: cfg.AuthRateLimitBurst,
		AuthTrustedProxies: cfg.AuthTrustedProxies,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.StorageType),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

func migrate(cfg config.Config, logger *slog.Logger) error {
	if cfg.StorageType != factory.StorageTypePostgres {
		return errors.New("migrate requires STORAGE_TYPE=postgres")
	}
	version, err := postgres.MigrateURL(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("migrations applied", slog.Int64("version", version))
	return nil
}
