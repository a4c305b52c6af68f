// Package config loads server configuration from environment variables.
// A .env file in the working directory is honored when present, which keeps
// local development setup to a single file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the API server. Optional integrations
// (Gmail, extraction, geocoding, background scans) degrade gracefully when
// their settings are absent.
type Config struct {
	Port     string
	LogLevel string

	DatabaseURL string
	JWTSecret   string

	CORSOrigins []string

	GoogleClientID     string
	GoogleClientSecret string
	OpenAIAPIKey       string
	MapboxAccessToken  string

	// ScanCron is a cron expression for the background mailbox sweep.
	// Empty disables the scheduler.
	ScanCron string
}

// Load reads configuration from the environment. Missing required variables
// are reported together so a misconfigured deployment fails with one complete
// message instead of one variable at a time.
func Load() (Config, error) {
	// Ignore a missing .env; the environment may be fully provisioned already.
	_ = godotenv.Load()

	cfg := Config{
		Port:               getenv("PORT", "8080"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSOrigins:        splitOrigins(getenv("CORS_ORIGINS", "http://localhost:5173")),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		MapboxAccessToken:  os.Getenv("MAPBOX_ACCESS_TOKEN"),
		ScanCron:           os.Getenv("SCAN_CRON"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	if cfg.ScanCron != "" && (cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" || cfg.OpenAIAPIKey == "") {
		return Config{}, fmt.Errorf("SCAN_CRON requires GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and OPENAI_API_KEY")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, strings.TrimRight(p, "/"))
		}
	}
	return origins
}
