package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/migrations"
)

var errNoDatabase = errors.New("database driver is not configured")

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.withRunner(cmd.Context(), func(ctx context.Context, r *migrations.Runner) error {
					applied, err := r.Up(ctx)
					if err != nil {
						return err
					}
					return printNames(opts, "applied", applied)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration group",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.withRunner(cmd.Context(), func(ctx context.Context, r *migrations.Runner) error {
					reverted, err := r.Down(ctx)
					if err != nil {
						return err
					}
					return printNames(opts, "rolled back", reverted)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations that have not been applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return opts.withRunner(cmd.Context(), func(ctx context.Context, r *migrations.Runner) error {
					pending, err := r.Pending(ctx)
					if err != nil {
						return err
					}
					return printNames(opts, "pending", pending)
				})
			},
		},
	)
	return cmd
}

// withRunner opens the configured database without building the module so
// migrations can run against an empty schema.
func (o *rootOptions) withRunner(ctx context.Context, fn func(context.Context, *migrations.Runner) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	db, err := di.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db == nil {
		return errNoDatabase
	}
	defer closeDB(db)

	provider, err := di.NewLoggerProvider(cfg.Logging)
	if err != nil {
		return err
	}
	runner, err := migrations.NewRunner(db, migrations.WithLogger(logging.ModuleLogger(provider, "blog.migrations")))
	if err != nil {
		return err
	}
	return fn(ctx, runner)
}

func closeDB(db *bun.DB) {
	_ = db.Close()
}

func printNames(opts *rootOptions, verb string, names []string) error {
	out := opts.stdout()
	if len(names) == 0 {
		_, err := fmt.Fprintf(out, "nothing %s\n", verb)
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(out, "%s %s\n", verb, name); err != nil {
			return err
		}
	}
	return nil
}
