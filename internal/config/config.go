package config

import (
	"fmt"
	"os"
)

type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	RedisURL         string
	SessionSecret    string
	ResumeStorageDir string
	// BrowserBin optionally pins the chromium binary used for autofill
	// sessions; empty means the launcher resolves one itself.
	BrowserBin string
	LogLevel   string
	LogFormat  string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		ResumeStorageDir: getEnv("RESUME_STORAGE_DIR", "data/resumes"),
		BrowserBin:       getEnv("BROWSER_BIN", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters, got %d", len(cfg.SessionSecret))
	}
	if cfg.ResumeStorageDir == "" {
		return nil, fmt.Errorf("RESUME_STORAGE_DIR cannot be empty")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
