// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/nsaleh/spabook/internal/schedule"
)

// Config holds application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Operating window for the single schedulable resource, in minutes
	// from midnight.
	DayStartMinutes int
	DayEndMinutes   int
	StepMinutes     int
	CellMinutes     int

	// Cache TTL for computed day snapshots, in seconds.
	SnapshotTTLSeconds int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		DayStartMinutes: getEnvAsInt("DAY_START_MINUTES", 9*60),
		DayEndMinutes:   getEnvAsInt("DAY_END_MINUTES", 19*60),
		StepMinutes:     getEnvAsInt("SLOT_STEP_MINUTES", schedule.DefaultStepMinutes),
		CellMinutes:     getEnvAsInt("GRID_CELL_MINUTES", schedule.DefaultCellMinutes),

		SnapshotTTLSeconds: getEnvAsInt("SNAPSHOT_TTL_SECONDS", 300),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// Window builds the schedule window from the configured minutes. Validation
// happens once at startup; a misconfigured window must stop the process.
func (c *Config) Window() (schedule.Window, error) {
	w := schedule.Window{
		DayStartMinutes: c.DayStartMinutes,
		DayEndMinutes:   c.DayEndMinutes,
		StepMinutes:     c.StepMinutes,
		CellMinutes:     c.CellMinutes,
	}
	if err := w.Validate(); err != nil {
		return schedule.Window{}, err
	}
	return w, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a
// default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a
// default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
