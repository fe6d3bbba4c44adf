package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// AuthMode selects which identity header the transports accept.
type AuthMode string

const (
	// AuthModeBasic authenticates every call with a Basic username:password pair.
	AuthModeBasic AuthMode = "basic"
	// AuthModeToken authenticates with an opaque session token header.
	AuthModeToken AuthMode = "token"
)

type Config struct {
	SupabaseURL  string
	SupabaseKey  string
	HTTPListen   string
	LogLevel     string
	AuthMode     AuthMode
	DataDir      string
	SetupDir     string
	StoreTimeout time.Duration
}

// Load reads a .env file if present, then the environment. The store
// credentials have no defaults: a missing SUPABASE_URL or SUPABASE_KEY is a
// startup error and the process must exit non-zero.
func Load() (*Config, error) {
	// Missing .env is fine; plain environment variables still apply.
	_ = godotenv.Load()

	cfg := &Config{
		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_KEY"),
		HTTPListen:  getEnv("HTTP_LISTEN", ":8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		AuthMode:    AuthMode(getEnv("AUTH_MODE", string(AuthModeBasic))),
		DataDir:     getEnv("DATA_DIR", filepath.Join(os.Getenv("HOME"), ".devsocial")),
		SetupDir:    os.Getenv("SETUP_DIR"),
	}

	timeout := getEnv("STORE_TIMEOUT", "10s")
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, fmt.Errorf("parse STORE_TIMEOUT %q: %w", timeout, err)
	}
	cfg.StoreTimeout = d

	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY environment variables are required")
	}

	switch cfg.AuthMode {
	case AuthModeBasic, AuthModeToken:
	default:
		return nil, fmt.Errorf("invalid AUTH_MODE %q (want basic or token)", cfg.AuthMode)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// Values returns the resolved configuration as a key/value map for the
// config CLI command. The store key is redacted.
func (c *Config) Values() map[string]string {
	return map[string]string{
		"supabase_url":  c.SupabaseURL,
		"supabase_key":  redact(c.SupabaseKey),
		"http_listen":   c.HTTPListen,
		"log_level":     c.LogLevel,
		"auth_mode":     string(c.AuthMode),
		"data_dir":      c.DataDir,
		"setup_dir":     c.SetupDir,
		"store_timeout": c.StoreTimeout.String(),
	}
}

func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
