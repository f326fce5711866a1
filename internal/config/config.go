package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	BaseURL     string
	DatabaseURL string
	RedisURL    string

	EmailBaseURL   string
	EmailSender    string
	EmailAuthToken string
	EmailTimeout   time.Duration

	WorkerPollInterval time.Duration
	WorkerErrorBackoff time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		EmailBaseURL:   getEnv("EMAIL_BASE_URL", ""),
		EmailSender:    getEnv("EMAIL_SENDER", ""),
		EmailAuthToken: getEnv("EMAIL_AUTH_TOKEN", ""),
		EmailTimeout:   getEnvDuration("EMAIL_TIMEOUT", 10*time.Second),

		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 10*time.Second),
		WorkerErrorBackoff: getEnvDuration("WORKER_ERROR_BACKOFF", time.Second),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.EmailBaseURL == "" {
		return nil, fmt.Errorf("EMAIL_BASE_URL is required")
	}
	if cfg.EmailSender == "" {
		return nil, fmt.Errorf("EMAIL_SENDER is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
