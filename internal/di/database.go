package di

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/runtimeconfig"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
)

const (
	defaultSQLiteDSN = "file:blog.db?cache=shared&_foreign_keys=on"
	pingTimeout      = 5 * time.Second
)

// OpenDatabase opens the configured database. It returns nil when no driver
// is configured, in which case the container keeps its in-memory stores.
func OpenDatabase(ctx context.Context, cfg runtimeconfig.DatabaseConfig) (*bun.DB, error) {
	var (
		db  *bun.DB
		err error
	)
	switch (runtimeconfig.Config{Database: cfg}).DatabaseDriver() {
	case "sqlite":
		db, err = openSQLite(cfg.DSN)
	case "postgres":
		db, err = openPostgres(cfg.DSN)
	default:
		if strings.TrimSpace(cfg.Driver) != "" {
			return nil, fmt.Errorf("%w: %s", runtimeconfig.ErrDatabaseDriverUnknown, cfg.Driver)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if ctx == nil {
		ctx = context.Background()
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("di: ping database: %w", err)
	}
	return db, nil
}

func openSQLite(dsn string) (*bun.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = defaultSQLiteDSN
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("di: open sqlite: %w", err)
	}
	// sqlite serialises writers; a single connection avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

func openPostgres(dsn string) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("di: open postgres: %w", err)
	}
	return bun.NewDB(sqlDB, pgdialect.New()), nil
}
