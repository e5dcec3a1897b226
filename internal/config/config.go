// Package config loads environment configuration and builds the shared
// logger.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Config carries everything the binary needs from the environment.
type Config struct {
	Addr         string
	BaseURL      string
	Env          string
	DatabasePath string

	SpotifyClientID     string
	SpotifyClientSecret string
	SessionSecret       string

	// GeminiAPIKey is optional: without it track suggestion falls back to the
	// built-in catalog and personality insights use templates.
	GeminiAPIKey string
}

// Load reads .env (when present) and the environment. Missing required
// values are an error; the binary should not limp along without credentials.
func Load() (Config, error) {
	// A missing .env file is fine in deployed environments.
	_ = godotenv.Load()

	cfg := Config{
		Addr:         getenv("ADDR", ":8080"),
		BaseURL:      getenv("BASE_URL", "http://localhost:8080"),
		Env:          getenv("APP_ENV", "development"),
		DatabasePath: getenv("DATABASE_PATH", "neurotunes.db"),

		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SessionSecret:       os.Getenv("SESSION_SECRET"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
	}

	if cfg.SpotifyClientID == "" {
		return Config{}, fmt.Errorf("config: SPOTIFY_CLIENT_ID is required")
	}
	if cfg.SpotifyClientSecret == "" {
		return Config{}, fmt.Errorf("config: SPOTIFY_CLIENT_SECRET is required")
	}
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("config: SESSION_SECRET is required")
	}

	return cfg, nil
}

// RedirectURL is the registered OAuth callback for this deployment.
func (c Config) RedirectURL() string {
	return c.BaseURL + "/auth/callback"
}

// NewLogger builds the application logger.
func NewLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
	})
	if os.Getenv("APP_ENV") != "production" {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
