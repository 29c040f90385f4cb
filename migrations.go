package blog

import (
	"context"
	"io/fs"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/internal/migrations"
)

// GetMigrationsFS returns the embedded SQL migrations for dialect, either
// "sqlite" or "postgres".
func GetMigrationsFS(dialect string) (fs.FS, error) {
	return migrations.FS(dialect)
}

// Migrate applies pending schema migrations to db and returns their names.
func Migrate(ctx context.Context, db *bun.DB) ([]string, error) {
	return migrations.Up(ctx, db)
}
