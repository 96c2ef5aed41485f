// Package config loads application configuration from environment variables.
//
// Every deployment knob lives here: listen port, database path, session
// signing secret, upstream API key, and the Google OAuth client. main.go
// calls Load() once and passes the resulting struct down - nothing else in
// the codebase reads os.Getenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for optional settings.
const (
	defaultPort            = 8080
	defaultDBPath          = "data/mannsakha.db"
	defaultSessionTTL      = 24 * time.Hour
	defaultGeminiModel     = "models/gemini-1.5-flash"
	defaultUpstreamTimeout = 30 * time.Second
)

// Config holds all application configuration.
type Config struct {
	Port          int
	DBPath        string
	SessionSecret string
	SessionTTL    time.Duration

	// Upstream generation provider. GeminiAPIKey may be empty - the server
	// still starts, and /api/gemini reports a configuration error instead.
	GeminiAPIKey    string
	GeminiModel     string
	UpstreamTimeout time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// Load reads configuration from environment variables and validates
// required fields.
func Load() (Config, error) {
	port, err := getEnvInt("PORT", defaultPort)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse PORT: %w", err)
	}

	sessionTTL, err := getEnvDuration("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse SESSION_TTL: %w", err)
	}

	upstreamTimeout, err := getEnvDuration("GEMINI_TIMEOUT", defaultUpstreamTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse GEMINI_TIMEOUT: %w", err)
	}

	cfg := Config{
		Port:               port,
		DBPath:             getEnv("DB_PATH", defaultDBPath),
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionTTL:         sessionTTL,
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", defaultGeminiModel),
		UpstreamTimeout:    upstreamTimeout,
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:  getEnv("GOOGLE_CALLBACK_URL", ""),
	}

	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/api/auth/google/callback", cfg.Port)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("config: SESSION_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("config: GEMINI_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(v)
}
