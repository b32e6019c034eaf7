package config

import (
	"os"
	"strconv"
	"time"

	"github.com/JoelKayemba/dream-market-sub000/internal/shared/infrastructure/database"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Database      database.PostgresConfig
	Redis         database.RedisConfig
	JWT           JWTConfig
	Notifications NotificationConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// NotificationConfig holds the notification core tuning knobs. The polling
// interval lives here exactly once; every refresh call site derives from it.
type NotificationConfig struct {
	PollInterval  time.Duration
	RetentionDays int
	PurgeInterval time.Duration
	QueueSize     int
	MaxAttempts   int
}

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:19006"),
		},
		Database: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "dreammarket"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: database.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "default-dev-secret"),
			Expiry: parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		},
		Notifications: NotificationConfig{
			PollInterval:  parseDuration(getEnv("NOTIF_POLL_INTERVAL", "30s"), 30*time.Second),
			RetentionDays: parseInt(getEnv("NOTIF_RETENTION_DAYS", "30"), 30),
			PurgeInterval: parseDuration(getEnv("NOTIF_PURGE_INTERVAL", "12h"), 12*time.Hour),
			QueueSize:     parseInt(getEnv("NOTIF_QUEUE_SIZE", "64"), 64),
			MaxAttempts:   parseInt(getEnv("NOTIF_MAX_ATTEMPTS", "3"), 3),
		},
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

// parseInt parses an integer string or returns a default value
func parseInt(value string, defaultValue int) int {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return defaultValue
}
