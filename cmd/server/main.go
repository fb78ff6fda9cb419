package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erauner12/genvault/internal/app"
	"github.com/erauner12/genvault/internal/config"
	"github.com/erauner12/genvault/internal/httpapi"
	"github.com/erauner12/genvault/internal/views"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load(os.Getenv("GENVAULT_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Configure structured logging
	app.SetupLogging(cfg, "genvault")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	if err := a.SeedSuperuser(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed superuser")
	}

	// HTTP server setup
	jwtCfg := app.JWT(cfg)
	srv := &httpapi.Server{
		Store:    a.Store,
		Accounts: a.Accounts,
		Gallery:  a.Gallery,
		Importer: a.Importer,
		RateLimitConfig: httpapi.RateLimitInfo{
			WindowSeconds: cfg.RateLimit.WindowSeconds,
			MaxRequests:   cfg.RateLimit.MaxRequests,
			Burst:         cfg.RateLimit.Burst,
		},
	}

	pages, err := views.New(a.Store, a.Accounts, a.Gallery, a.Importer, jwtCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}
	pages.SecureCookies = cfg.Auth.SecureCookies

	httpServer := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     srv.Routes(jwtCfg, pages.Register),
		ReadTimeout: 15 * time.Second,
		// Chain imports are synchronous and paced by the Civitai rate limiter
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	srv.Close()

	log.Info().Msg("server stopped")
}
