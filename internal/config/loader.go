package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Load loads configuration from a file path and applies environment variable overrides
// Validation is deferred to allow CLI flag overrides to be applied first
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadFromFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	applyEnvironmentOverrides(cfg)

	return cfg, nil
}

// loadFromFile overlays a JSON file onto cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigFileNotFound
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfigFormat, err)
	}
	return nil
}

// applyEnvironmentOverrides applies configuration from environment variables
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DEV_MODE"); v == "true" || v == "1" {
		cfg.DevMode = true
	}

	// Auth
	if v := os.Getenv("JWT_HS256_SECRET"); v != "" {
		cfg.Auth.HS256Secret = v
	}
	durationEnv("ACCESS_TOKEN_TTL", &cfg.Auth.AccessTokenTTL)
	if v := os.Getenv("SECURE_COOKIES"); v == "true" || v == "1" {
		cfg.Auth.SecureCookies = true
	}

	// Civitai
	if v := os.Getenv("CIVITAI_BASE_URL"); v != "" {
		cfg.Civitai.BaseURL = v
	}
	if v := os.Getenv("CIVITAI_CLIENT_VERSION"); v != "" {
		cfg.Civitai.ClientVersion = v
	}
	if v := os.Getenv("CIVITAI_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Civitai.RequestsPerSecond = f
		} else {
			log.Warn().Str("value", v).Msg("ignoring invalid CIVITAI_RPS")
		}
	}
	durationEnv("CIVITAI_TIMEOUT", &cfg.Civitai.Timeout)

	// First superuser
	if v := os.Getenv("FIRST_SUPERUSER"); v != "" {
		cfg.Superuser.Username = v
	}
	if v := os.Getenv("FIRST_SUPERUSER_EMAIL"); v != "" {
		cfg.Superuser.Email = v
	}
	if v := os.Getenv("FIRST_SUPERUSER_PASSWORD"); v != "" {
		cfg.Superuser.Password = v
	}

	// API rate limit
	intEnv("RATE_LIMIT_WINDOW_SECONDS", &cfg.RateLimit.WindowSeconds)
	intEnv("RATE_LIMIT_MAX_REQUESTS", &cfg.RateLimit.MaxRequests)
	intEnv("RATE_LIMIT_BURST", &cfg.RateLimit.Burst)
}

func durationEnv(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("ignoring invalid duration")
		return
	}
	*dst = d
}

func intEnv(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Msg("ignoring invalid integer")
		return
	}
	*dst = n
}
