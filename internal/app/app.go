// Package app wires configuration into the service graph shared by the server and the CLI
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/civitai"
	"github.com/erauner12/genvault/internal/config"
	"github.com/erauner12/genvault/internal/db"
	"github.com/erauner12/genvault/internal/importer"
	"github.com/erauner12/genvault/internal/service/accounts"
	"github.com/erauner12/genvault/internal/service/gallery"
	"github.com/erauner12/genvault/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// App holds the long-lived dependencies
type App struct {
	Config   *config.Config
	Pool     *pgxpool.Pool
	Store    *store.Store
	Accounts *accounts.Service
	Gallery  *gallery.Service
	Civitai  *civitai.Client
	Importer *importer.Importer
}

// SetupLogging configures the global zerolog logger
func SetupLogging(cfg *config.Config, service string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", service).Logger()

	// Pretty logging for local dev
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// JWT returns the token configuration
func JWT(cfg *config.Config) auth.JWTCfg {
	return auth.JWTCfg{
		HS256Secret: cfg.Auth.HS256Secret,
		TokenTTL:    cfg.Auth.AccessTokenTTL,
		DevMode:     cfg.DevMode,
	}
}

// New connects to Postgres, applies the schema and builds the services
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolCfg{})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	st := store.New(pool)
	client := civitai.NewClient(civitai.Config{
		BaseURL:           cfg.Civitai.BaseURL,
		ClientVersion:     cfg.Civitai.ClientVersion,
		RequestsPerSecond: cfg.Civitai.RequestsPerSecond,
		Burst:             cfg.Civitai.Burst,
		Timeout:           cfg.Civitai.Timeout,
	}, st)

	return &App{
		Config:   cfg,
		Pool:     pool,
		Store:    st,
		Accounts: accounts.NewService(st),
		Gallery:  gallery.NewService(st),
		Civitai:  client,
		Importer: importer.New(st, client),
	}, nil
}

// SeedSuperuser creates the configured first superuser if it is missing
func (a *App) SeedSuperuser(ctx context.Context) error {
	su := a.Config.Superuser
	if su.Username == "" {
		return nil
	}
	_, err := a.Accounts.EnsureSuperuser(ctx, su.Username, su.Email, su.Password)
	return err
}

// Close releases the connection pool
func (a *App) Close() {
	a.Pool.Close()
}
