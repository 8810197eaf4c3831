// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mcoot/humanbench/internal/middleware"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultPort             = 8080
	defaultStorageType      = "memory"
	defaultLeaderboardLimit = 50
	defaultAuthRateRPS      = 5.0
	defaultAuthRateBurst    = 10
	defaultLogLevel         = "info"

	// devJWTSecret is only accepted outside production
	devJWTSecret = "humanbench-dev-secret-change-me"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// Config holds the process configuration
type Config struct {
	Env  string
	Port int

	StorageType string
	DatabaseURL string
	RedisURL    string

	JWTSecret string

	CORSAllowedOrigins []string

	// LeaderboardLimit is the default and maximum number of ranking entries
	LeaderboardLimit int

	// Auth endpoint rate limit per client IP; disabled when AuthRateLimitRPS <= 0
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	// AuthTrustedProxies are the proxies allowed to set X-Forwarded-For
	AuthTrustedProxies []netip.Prefix

	LogLevel string
}

// Load reads an optional .env file and then the environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment and validates it
func FromEnv() (Config, error) {
	cfg := Config{
		Env:                envOr("APP_ENV", EnvDevelopment),
		Port:               envInt("PORT", defaultPort),
		StorageType:        strings.ToLower(envOr("STORAGE_TYPE", defaultStorageType)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSAllowedOrigins: envCSV("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
		LeaderboardLimit:   envInt("LEADERBOARD_LIMIT", defaultLeaderboardLimit),
		AuthRateLimitRPS:   envFloat("AUTH_RATE_LIMIT_RPS", defaultAuthRateRPS),
		AuthRateLimitBurst: envInt("AUTH_RATE_LIMIT_BURST", defaultAuthRateBurst),
		LogLevel:           strings.ToLower(envOr("LOG_LEVEL", defaultLogLevel)),
	}

	proxies, err := middleware.ParseTrustedProxies(envCSV("AUTH_TRUSTED_PROXIES", nil))
	if err != nil {
		return Config{}, fmt.Errorf("invalid AUTH_TRUSTED_PROXIES: %w", err)
	}
	cfg.AuthTrustedProxies = proxies

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	switch c.StorageType {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL required when STORAGE_TYPE=postgres")
		}
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, postgres or redis", c.StorageType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.LeaderboardLimit <= 0 {
		return fmt.Errorf("invalid LEADERBOARD_LIMIT %d: must be positive", c.LeaderboardLimit)
	}
	return nil
}

// IsProduction reports whether APP_ENV is production
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SlogLevel maps LogLevel to a slog level, defaulting to info
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt falls back to def when the variable is unset or not an integer
func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer setting, using default",
				slog.String("key", key), slog.String("value", v), slog.Int("default", def))
			return def
		}
		return i
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid number setting, using default",
				slog.String("key", key), slog.String("value", v), slog.Float64("default", def))
			return def
		}
		return f
	}
	return def
}

// envCSV splits a comma separated list, dropping blanks
func envCSV(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
