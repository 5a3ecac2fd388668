package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// Worker pool
	WorkerCount int
	QueueSize   int

	// Feature cache
	CacheTTL time.Duration

	// Record stores
	ClickHouseTable string
	PostgresTable   string
	EntityColumn    string
	TimeColumn      string
	MetricColumns   []string
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		WorkerCount: getEnvInt("WORKER_COUNT", 4),
		QueueSize:   getEnvInt("QUEUE_SIZE", 1024),

		CacheTTL: getEnvDuration("FEATURE_CACHE_TTL", 1*time.Hour),

		ClickHouseTable: getEnv("CLICKHOUSE_TABLE", "panel_data.player_game_logs"),
		PostgresTable:   getEnv("POSTGRES_TABLE", "box_scores"),
		EntityColumn:    getEnv("ENTITY_COLUMN", "player_id"),
		TimeColumn:      getEnv("TIME_COLUMN", "game_date"),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Metric columns loaded from the record stores
	metrics := getEnv("METRIC_COLUMNS", "points,rebounds,assists,minutes")
	for _, m := range strings.Split(metrics, ",") {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			cfg.MetricColumns = append(cfg.MetricColumns, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.ClickHouseURL, err = getEnvRequired("CLICKHOUSE_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
