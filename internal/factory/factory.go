package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/humanbench/internal/config"
	"github.com/mcoot/humanbench/internal/dependencies/clock"
	"github.com/mcoot/humanbench/internal/dependencies/ids"
	"github.com/mcoot/humanbench/internal/dependencies/random"
	"github.com/mcoot/humanbench/internal/metrics"
	"github.com/mcoot/humanbench/internal/services/auth"
	"github.com/mcoot/humanbench/internal/services/ranking"
	"github.com/mcoot/humanbench/internal/services/rooms"
	"github.com/mcoot/humanbench/internal/services/scoring"
	"github.com/mcoot/humanbench/internal/storage"
	"github.com/mcoot/humanbench/internal/storage/memory"
	"github.com/mcoot/humanbench/internal/storage/postgres"
	redisstorage "github.com/mcoot/humanbench/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	IDs    ids.Generator

	Metrics *metrics.Metrics

	// Services
	AuthService    *auth.Service
	ScoringService *scoring.Service
	RankingService *ranking.Service
	RoomsService   *rooms.Service
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service. Secret is required.
	AuthConfig auth.Config
	// RankingConfig caps leaderboard sizes (optional)
	RankingConfig ranking.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds database settings (required if StorageType is "postgres")
	PostgresConfig *postgres.Config
}

// ConfigFrom builds a factory Config from the process configuration
func ConfigFrom(cfg config.Config, logger *slog.Logger) Config {
	authCfg := auth.DefaultConfig()
	authCfg.Secret = cfg.JWTSecret

	out := Config{
		AuthConfig:    authCfg,
		RankingConfig: ranking.Config{Limit: cfg.LeaderboardLimit},
		Logger:        logger,
		StorageType:   cfg.StorageType,
	}

	switch cfg.StorageType {
	case StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		out.RedisConfig = &redisCfg
	case StorageTypePostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.DatabaseURL
		out.PostgresConfig = &pgCfg
	}
	return out
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	if cfg.AuthConfig.Secret == "" {
		return nil, errors.New("AuthConfig.Secret is required")
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("storage ready", slog.String("type", storageTypeOrDefault(cfg.StorageType)))

	return newWithDependencies(store, clock.New(), random.New(), ids.New(), metrics.New(), cfg, logger), nil
}

func storageTypeOrDefault(t string) string {
	if t == "" {
		return StorageTypeMemory
	}
	return t
}

// newStorage creates the storage backend selected by cfg
func newStorage(cfg Config) (storage.Storage, error) {
	switch storageTypeOrDefault(cfg.StorageType) {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		store, err := postgres.New(*cfg.PostgresConfig)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'postgres'", cfg.StorageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	idGen ids.Generator,
	m *metrics.Metrics,
	cfg Config,
	logger *slog.Logger,
) *App {
	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		IDs:            idGen,
		Metrics:        m,
		AuthService:    auth.New(store, clk, rnd, idGen, m, cfg.AuthConfig, logger),
		ScoringService: scoring.New(store, clk, idGen, m, logger),
		RankingService: ranking.New(store, cfg.RankingConfig),
		RoomsService:   rooms.New(store, clk, rnd, idGen, m, logger),
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
