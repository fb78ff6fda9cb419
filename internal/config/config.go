package config

import "time"

// Config holds all configuration for the genvault server and CLI
type Config struct {
	Env         string        `json:"env"` // "dev" enables console logging
	HTTPAddr    string        `json:"httpAddr"`
	DatabaseURL string        `json:"databaseUrl"`
	LogLevel    string        `json:"logLevel"`
	DevMode     bool          `json:"devMode"` // enables X-Debug-Sub header fallback
	Auth        AuthConfig    `json:"auth"`
	Civitai     CivitaiConfig `json:"civitai"`
	Superuser   SuperuserSeed `json:"superuser"`
	RateLimit   RateLimit     `json:"rateLimit"`
}

// AuthConfig configures token issuance and validation
type AuthConfig struct {
	HS256Secret    string        `json:"hs256Secret"`
	AccessTokenTTL time.Duration `json:"accessTokenTtl"`
	SecureCookies  bool          `json:"secureCookies"`
}

// CivitaiConfig configures the upstream client
type CivitaiConfig struct {
	BaseURL           string        `json:"baseUrl"`
	ClientVersion     string        `json:"clientVersion"`
	RequestsPerSecond float64       `json:"requestsPerSecond"`
	Burst             int           `json:"burst"`
	Timeout           time.Duration `json:"timeout"`
}

// SuperuserSeed describes the account created on first start
type SuperuserSeed struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RateLimit configures the per-user API token bucket
type RateLimit struct {
	WindowSeconds int `json:"windowSeconds"`
	MaxRequests   int `json:"maxRequests"`
	Burst         int `json:"burst"`
}

// devSecret is only accepted when Env is "dev"
const devSecret = "dev-secret-change-in-production"

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.HTTPAddr == "" {
		return ErrMissingHTTPAddr
	}
	if c.Auth.HS256Secret == "" {
		return ErrMissingJWTSecret
	}
	if c.Env != "dev" && c.Auth.HS256Secret == devSecret {
		return ErrInsecureJWTSecret
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return ErrInvalidTokenTTL
	}
	if c.Superuser.Username != "" && c.Superuser.Password == "" {
		return ErrMissingSuperuserPassword
	}
	return nil
}

// IsDev reports whether the service runs in local development mode
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Env:      "dev",
		HTTPAddr: ":8081",
		LogLevel: "info",
		Auth: AuthConfig{
			HS256Secret:    devSecret,
			AccessTokenTTL: 8 * 24 * time.Hour,
		},
		Civitai: CivitaiConfig{
			BaseURL:           "https://civitai.com",
			ClientVersion:     "5.0.289",
			RequestsPerSecond: 2,
			Burst:             1,
			Timeout:           30 * time.Second,
		},
		RateLimit: RateLimit{
			WindowSeconds: 60,
			MaxRequests:   600,
			Burst:         120,
		},
	}
}
