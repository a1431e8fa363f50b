package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// config holds CLI defaults read from the environment.
type config struct {
	Currency string
	LogLevel string
}

// loadConfig reads DROPS_* variables, loading .env first when present.
func loadConfig() config {
	_ = godotenv.Load()

	return config{
		Currency: strings.ToLower(getEnv("DROPS_CURRENCY", "ngn")),
		LogLevel: getEnv("DROPS_LOG_LEVEL", "info"),
	}
}

func (c config) level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
