package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Tipos de store soportados por la API.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
	StoreFile     = "file"
)

// Config agrupa la configuración necesaria para correr la aplicación.
type Config struct {
	Port string

	Store       string
	StoreFile   string
	DatabaseURL string

	RedisURL string
	DraftTTL time.Duration

	OTelExporter    string
	OTelEndpoint    string
	OTelServiceName string

	LogLevel slog.Level
}

// Load lee variables de entorno y valida lo mínimo indispensable.
func Load() (Config, error) {
	port := env("PORT", "8080")
	// Normalizamos por si alguien manda ":8080"
	port = strings.TrimPrefix(port, ":")

	store := strings.ToLower(env("STORE", StorePostgres))
	databaseURL := env("DATABASE_URL", "")
	switch store {
	case StorePostgres:
		if databaseURL == "" {
			return Config{}, fmt.Errorf("missing required env var: DATABASE_URL")
		}
	case StoreMemory, StoreFile:
	default:
		return Config{}, fmt.Errorf("invalid STORE %q: want postgres, memory or file", store)
	}

	draftTTL, err := time.ParseDuration(env("DRAFT_TTL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DRAFT_TTL: %w", err)
	}

	exporter := strings.ToLower(env("OTEL_EXPORTER", "none"))
	switch exporter {
	case "none", "stdout", "otlp":
	default:
		return Config{}, fmt.Errorf("invalid OTEL_EXPORTER %q: want none, stdout or otlp", exporter)
	}

	level, err := ParseLogLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Port:            port,
		Store:           store,
		StoreFile:       env("STORE_FILE", "data/items.json"),
		DatabaseURL:     databaseURL,
		RedisURL:        env("REDIS_URL", ""),
		DraftTTL:        draftTTL,
		OTelExporter:    exporter,
		OTelEndpoint:    env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelServiceName: env("OTEL_SERVICE_NAME", "inventory-api"),
		LogLevel:        level,
	}, nil
}

// ParseLogLevel acepta debug, info, warn/warning y error (sin importar mayúsculas).
func ParseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", value)
	}
}

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
