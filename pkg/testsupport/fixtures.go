package testsupport

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateTables creates the tables for models when they do not exist yet.
// Models must be passed parents first so foreign keys resolve.
func CreateTables(ctx context.Context, db *bun.DB, models ...any) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", model, err)
		}
	}
	return nil
}
