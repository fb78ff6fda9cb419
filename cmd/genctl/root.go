package main

import (
	"context"
	"os"

	"github.com/erauner12/genvault/internal/app"
	"github.com/erauner12/genvault/internal/config"
	"github.com/spf13/cobra"
)

// rootOpts are the persistent flags shared by every command
type rootOpts struct {
	configPath  string
	databaseURL string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:   "genctl",
		Short: "Maintenance commands for genvault",
		Long: `genctl imports Civitai generation history, repairs the stored cursor
chain and manages accounts without going through the HTTP API.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("GENVAULT_CONFIG"), "path to a JSON config file")
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL (overrides DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newImportCmd(opts),
		newRepairCmd(opts),
		newCreateSuperuserCmd(opts),
	)
	return cmd
}

// loadConfig applies flag overrides on top of file and environment configuration
func (o *rootOpts) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if cfg.DatabaseURL == "" {
		return nil, config.ErrMissingDatabaseURL
	}
	return cfg, nil
}

// withApp builds the service graph, runs fn and tears it down
func (o *rootOpts) withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	app.SetupLogging(cfg, "genctl")

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
