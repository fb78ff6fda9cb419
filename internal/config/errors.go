package config

import "errors"

var (
	// ErrMissingDatabaseURL indicates that DATABASE_URL is not configured
	ErrMissingDatabaseURL = errors.New("databaseUrl is required in configuration")

	// ErrMissingHTTPAddr indicates an empty listen address
	ErrMissingHTTPAddr = errors.New("httpAddr is required in configuration")

	// ErrMissingJWTSecret indicates that no HS256 secret is configured
	ErrMissingJWTSecret = errors.New("auth.hs256Secret is required")

	// ErrInsecureJWTSecret indicates the development secret outside dev
	ErrInsecureJWTSecret = errors.New("auth.hs256Secret must be changed outside dev")

	// ErrInvalidTokenTTL indicates a non-positive access token lifetime
	ErrInvalidTokenTTL = errors.New("auth.accessTokenTtl must be positive")

	// ErrMissingSuperuserPassword indicates a seed account without a password
	ErrMissingSuperuserPassword = errors.New("superuser.password is required when superuser.username is set")

	// ErrConfigFileNotFound indicates that the config file was not found
	ErrConfigFileNotFound = errors.New("configuration file not found")

	// ErrInvalidConfigFormat indicates that the config file has invalid JSON
	ErrInvalidConfigFormat = errors.New("invalid configuration file format")
)
