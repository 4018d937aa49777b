// Package config loads the server settings from environment variables once
// at startup. The result is treated as immutable.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port            int
	ShutdownTimeout time.Duration

	// Store
	DBPath string

	// Auth
	JWTSecret string

	// Logging
	LogLevel  string
	LogFormat string

	// Rate limit on mutating routes, per user.
	RateLimitWritesPerMin int
}

// Load reads the environment. Every missing or invalid required variable is
// reported in a single error.
func Load() (*Config, error) {
	cfg := &Config{}
	var problems []string

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	switch {
	case cfg.JWTSecret == "":
		problems = append(problems, "JWT_SECRET is not set")
	case len(cfg.JWTSecret) < 16:
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}

	port, err := strconv.Atoi(getEnvString("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %q is not a valid port", os.Getenv("PORT")))
	}
	cfg.Port = port

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", problems)
	}

	cfg.DBPath = getEnvString("DB_PATH", "data/devconnector.db")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.LogFormat = getEnvString("LOG_FORMAT", "text")
	cfg.RateLimitWritesPerMin = getEnvInt("RATE_LIMIT_WRITES_PER_MIN", 60)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
