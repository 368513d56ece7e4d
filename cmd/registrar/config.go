package main

import (
	"fmt"
	"os"
	"time"
)

// Config is read from the environment once at startup.
type Config struct {
	DatabaseURL string
	LogLevel    string
	Development bool

	// Timezone decides which calendar year a number belongs to.
	Timezone *time.Location

	AssignInterval  time.Duration
	AssignBatchSize int
	PoolMaxConns    int

	// RedisURL enables the issuer lease; empty runs without one.
	RedisURL string
	LeaseTTL time.Duration

	// NATSURL enables NumberIssued events; empty drops them.
	NATSURL     string
	NATSSubject string
}

func loadConfig() (Config, error) {
	cfg := Config{
		DatabaseURL:     mustEnv("DATABASE_URL"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Development:     getEnv("APP_ENV", "development") == "development",
		AssignInterval:  getEnvDuration("ASSIGN_INTERVAL", 30*time.Second),
		AssignBatchSize: getEnvInt("ASSIGN_BATCH_SIZE", 100),
		PoolMaxConns:    getEnvInt("DB_MAX_CONNS", 10),
		RedisURL:        getEnv("REDIS_URL", ""),
		LeaseTTL:        getEnvDuration("LEASE_TTL", 30*time.Second),
		NATSURL:         getEnv("NATS_URL", ""),
		NATSSubject:     getEnv("NATS_SUBJECT_PREFIX", "langschool.numbers."),
	}

	tz := getEnv("NUMBERING_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return cfg, fmt.Errorf("NUMBERING_TIMEZONE %q: %w", tz, err)
	}
	cfg.Timezone = loc

	if cfg.AssignInterval <= 0 {
		return cfg, fmt.Errorf("ASSIGN_INTERVAL must be positive, got %s", cfg.AssignInterval)
	}
	if cfg.AssignBatchSize <= 0 {
		return cfg, fmt.Errorf("ASSIGN_BATCH_SIZE must be positive, got %d", cfg.AssignBatchSize)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
