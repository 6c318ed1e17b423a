// Package config loads process configuration from the environment.
// A .env file in the working directory is read first when present;
// real environment variables always win.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings shared by the server and the worker.
type Config struct {
	AppEnv   string
	AppPort  string
	LogLevel string

	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	// OrderNumberPrefix is used when a store has no prefix of its own.
	OrderNumberPrefix string

	ScheduleOpen        string
	ScheduleClose       string
	ScheduleSlotMinutes int

	// RedisAddress switches scheduling locks to Redis when set.
	RedisAddress string

	KafkaBrokers []string
	KafkaTopic   string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration
}

// Development reports whether logs should be human-readable.
func (c Config) Development() bool {
	return c.AppEnv == "development"
}

// Load reads configuration. It fails only when a required variable is missing.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		AppPort:             getEnv("APP_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 25),
		DBMinConns:          getEnvInt("DB_MIN_CONNS", 5),
		OrderNumberPrefix:   getEnv("ORDER_NUMBER_PREFIX", "PED"),
		ScheduleOpen:        getEnv("SCHEDULE_OPEN", "10:00"),
		ScheduleClose:       getEnv("SCHEDULE_CLOSE", "20:00"),
		ScheduleSlotMinutes: getEnvInt("SCHEDULE_SLOT_MINUTES", 30),
		RedisAddress:        os.Getenv("REDIS_ADDRESS"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "atelier.events"),
		OutboxPollInterval:  getEnvDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:     getEnvInt("OUTBOX_BATCH_SIZE", 100),
		IdempotencyEnabled:  getEnv("IDEMPOTENCY_ENABLED", "true") == "true",
		IdempotencyTTL:      getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("required environment variable DATABASE_URL not set")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
