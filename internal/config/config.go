package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all runtime settings for the client.
type AppConfig struct {
	ServerBaseURL string
	ServerWSURL   string

	Username string

	SessionBackend string // "file" or "redis"
	SessionFile    string
	RedisURL       string

	DatabaseURL string

	HTTPTimeoutSec int
	EmitTimeoutSec int

	DefaultPromotion string
}

// Load reads configuration from a .env file (when present) and the environment.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		SessionBackend:   "file",
		HTTPTimeoutSec:   10,
		EmitTimeoutSec:   5,
		DefaultPromotion: "q",
	}

	cfg.ServerBaseURL = strings.TrimSpace(os.Getenv("CHESSLINK_SERVER_URL"))
	cfg.ServerWSURL = strings.TrimSpace(os.Getenv("CHESSLINK_WS_URL"))
	cfg.Username = strings.TrimSpace(os.Getenv("CHESSLINK_USERNAME"))

	if v := strings.TrimSpace(os.Getenv("CHESSLINK_SESSION_BACKEND")); v != "" {
		cfg.SessionBackend = strings.ToLower(v)
	}
	cfg.SessionFile = strings.TrimSpace(os.Getenv("CHESSLINK_SESSION_FILE"))
	if cfg.SessionFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.SessionFile = filepath.Join(home, ".config", "chesslink", "session.json")
		} else {
			cfg.SessionFile = filepath.Join(".", "session.json")
		}
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("CHESSLINK_HTTP_TIMEOUT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESSLINK_EMIT_TIMEOUT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EmitTimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESSLINK_DEFAULT_PROMOTION")); v != "" {
		cfg.DefaultPromotion = strings.ToLower(v)
	}

	if cfg.ServerBaseURL == "" {
		return nil, errors.New("CHESSLINK_SERVER_URL is required")
	}
	if cfg.ServerWSURL == "" {
		return nil, errors.New("CHESSLINK_WS_URL is required")
	}
	if cfg.SessionBackend == "redis" && cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required when CHESSLINK_SESSION_BACKEND=redis")
	}
	switch cfg.SessionBackend {
	case "file", "redis":
	default:
		return nil, errors.New("CHESSLINK_SESSION_BACKEND must be file or redis")
	}

	return cfg, nil
}
