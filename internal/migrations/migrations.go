// Package migrations embeds the blog schema for each supported dialect and
// applies it through bun's migrator.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/migrate"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"

	defaultTable      = "blog_migrations"
	defaultLocksTable = "blog_migration_locks"
)

//go:embed sql
var files embed.FS

// FS returns the migration files for the named dialect.
func FS(name string) (fs.FS, error) {
	switch name {
	case DialectSQLite, DialectPostgres:
		return fs.Sub(files, "sql/"+name)
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", name)
	}
}

// DialectOf maps a bun database to the migration directory it should use.
func DialectOf(db *bun.DB) string {
	if db.Dialect().Name() == dialect.PG {
		return DialectPostgres
	}
	return DialectSQLite
}

// Collection discovers the embedded migrations for the dialect.
func Collection(name string) (*migrate.Migrations, error) {
	sub, err := FS(name)
	if err != nil {
		return nil, err
	}
	set := migrate.NewMigrations()
	if err := set.Discover(sub); err != nil {
		return nil, fmt.Errorf("migrations: discover %s: %w", name, err)
	}
	return set, nil
}

type Runner struct {
	db       *bun.DB
	migrator *migrate.Migrator
	logger   interfaces.Logger
}

type Option func(*runnerOptions)

type runnerOptions struct {
	table      string
	locksTable string
	logger     interfaces.Logger
}

// WithTables overrides the bookkeeping tables used by the migrator.
func WithTables(table, locks string) Option {
	return func(o *runnerOptions) {
		if table != "" {
			o.table = table
		}
		if locks != "" {
			o.locksTable = locks
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(o *runnerOptions) {
		o.logger = logger
	}
}

func NewRunner(db *bun.DB, opts ...Option) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("migrations: database is required")
	}
	cfg := runnerOptions{table: defaultTable, locksTable: defaultLocksTable}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	set, err := Collection(DialectOf(db))
	if err != nil {
		return nil, err
	}
	migrator := migrate.NewMigrator(db, set,
		migrate.WithTableName(cfg.table),
		migrate.WithLocksTableName(cfg.locksTable),
	)
	return &Runner{
		db:       db,
		migrator: migrator,
		logger:   logging.WithFields(logging.Ensure(cfg.logger), map[string]any{"dialect": DialectOf(db)}),
	}, nil
}

// Up applies every pending migration and returns the names applied.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	if err := r.migrator.Init(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "migrations: init failed").
			WithTextCode("MIGRATIONS_INIT")
	}
	if err := r.migrator.Lock(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "migrations: lock failed").
			WithTextCode("MIGRATIONS_LOCK")
	}
	defer func() {
		if err := r.migrator.Unlock(ctx); err != nil {
			r.logger.Warn("migrations.unlock_failed", "error", err)
		}
	}()

	group, err := r.migrator.Migrate(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "migrations: apply failed").
			WithTextCode("MIGRATIONS_APPLY")
	}
	if group.IsZero() {
		r.logger.Debug("migrations.up.noop")
		return nil, nil
	}
	names := migrationNames(group.Migrations)
	r.logger.Info("migrations.up.applied", "group", group.ID, "migrations", names)
	return names, nil
}

// Down rolls back the most recent migration group.
func (r *Runner) Down(ctx context.Context) ([]string, error) {
	if err := r.migrator.Init(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "migrations: init failed").
			WithTextCode("MIGRATIONS_INIT")
	}
	group, err := r.migrator.Rollback(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "migrations: rollback failed").
			WithTextCode("MIGRATIONS_ROLLBACK")
	}
	if group.IsZero() {
		return nil, nil
	}
	names := migrationNames(group.Migrations)
	r.logger.Info("migrations.down.rolled_back", "group", group.ID, "migrations", names)
	return names, nil
}

// Pending lists migrations that have not been applied yet.
func (r *Runner) Pending(ctx context.Context) ([]string, error) {
	if err := r.migrator.Init(ctx); err != nil {
		return nil, err
	}
	status, err := r.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, err
	}
	return migrationNames(status.Unapplied()), nil
}

// Up is shorthand for NewRunner followed by Runner.Up.
func Up(ctx context.Context, db *bun.DB, opts ...Option) ([]string, error) {
	runner, err := NewRunner(db, opts...)
	if err != nil {
		return nil, err
	}
	return runner.Up(ctx)
}

func migrationNames(items migrate.MigrationSlice) []string {
	names := make([]string, 0, len(items))
	for _, m := range items {
		names = append(names, m.Name)
	}
	return names
}
