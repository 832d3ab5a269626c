package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string

	// Backend search API
	APIURL string

	// Session configuration
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
}

// LoadConfig loads configuration from a .env file, environment variables and command-line flags
// Flags take precedence over environment variables
func LoadConfig() (*Config, error) {
	// A missing .env file is fine, the environment may already be set up
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return Load(os.Args[1:])
}

// Load parses configuration from args, falling back to environment variables and defaults
func Load(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	// Define flags
	serverPort := fs.String("server-port", getEnv("SERVER_PORT", "8080"), "Server port")
	apiURL := fs.String("api-url", getEnv("API_URL", "http://localhost:8000"), "Base URL of the search backend")
	sessionTTL := fs.Duration("session-ttl", getEnvAsDuration("SESSION_TTL", 30*time.Minute), "Idle time after which a session is dropped")
	sweepInterval := fs.Duration("session-sweep-interval", getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute), "How often idle sessions are swept")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	// Set config values
	cfg.ServerPort = *serverPort
	cfg.APIURL = strings.TrimRight(*apiURL, "/")
	cfg.SessionTTL = *sessionTTL
	cfg.SessionSweepInterval = *sweepInterval

	// Validate
	u, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API_URL %q: %w", cfg.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("API_URL must be an absolute http(s) URL, got %q", cfg.APIURL)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.SessionSweepInterval <= 0 {
		return nil, fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %s", cfg.SessionSweepInterval)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value, "default", defaultValue, "error", err)
	}
	return defaultValue
}
