package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/erauner12/genvault/internal/app"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// app.New migrates on connect
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func newImportCmd(opts *rootOpts) *cobra.Command {
	var single bool

	cmd := &cobra.Command{
		Use:   "import [cursor-id]",
		Short: "Import generation history from Civitai",
		Long: `Walk the Civitai cursor chain starting at cursor-id, or at the latest page when
no id is given. Already imported pages are followed through their stored links and the
walk stops after 5 of them in a row.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := ""
			if len(args) == 1 {
				start = args[0]
			}
			if single && start == "" {
				return errors.New("--single requires a cursor id")
			}

			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				if single {
					res, err := a.Importer.ImportPage(ctx, start)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "imported %s: %d images, %d skipped\n",
						res.Cursor.ID, res.ImagesImported, res.ImagesSkipped)
					return nil
				}

				res, err := a.Importer.ImportChain(ctx, start)
				fmt.Fprintf(out, "cursors imported: %d\nimages imported:  %d\ncursors skipped:  %d\n",
					res.CursorsImported, res.ImagesImported, res.CursorsSkipped)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "stopped: %s\n", res.StopReason)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&single, "single", false, "import only the given page without following the chain")
	return cmd
}

func newRepairCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Recompute page numbers, timestamps and links of the cursor chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Importer.RepairChain(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "repaired %d of %d cursors\n", res.Updated, res.Total)
				for _, id := range res.UpdatedIDs {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", id)
				}
				return nil
			})
		},
	}
}

func newCreateSuperuserCmd(opts *rootOpts) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create-superuser <username>",
		Short: "Create a superuser account if it does not exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				u, err := a.Accounts.EnsureSuperuser(ctx, args[0], email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "superuser %s (%s)\n", u.Username, u.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (defaults to <username>@localhost)")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}
