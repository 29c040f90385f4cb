package migrations_test

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-blog/internal/migrations"
	"github.com/goliatone/go-blog/pkg/testsupport"
)

func TestEmbeddedDialectsShipMatchingFiles(t *testing.T) {
	for _, name := range []string{migrations.DialectSQLite, migrations.DialectPostgres} {
		sub, err := migrations.FS(name)
		if err != nil {
			t.Fatalf("fs %s: %v", name, err)
		}
		entries, err := fs.ReadDir(sub, ".")
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var ups, downs int
		for _, entry := range entries {
			switch {
			case strings.HasSuffix(entry.Name(), ".up.sql"):
				ups++
			case strings.HasSuffix(entry.Name(), ".down.sql"):
				downs++
			}
		}
		if ups == 0 || ups != downs {
			t.Fatalf("%s: expected paired up/down files, got %d up and %d down", name, ups, downs)
		}
	}

	if _, err := migrations.FS("mysql"); err == nil {
		t.Fatalf("expected unsupported dialect error")
	}
}

func TestPostgresSchemaDeclaresSearchVector(t *testing.T) {
	sub, err := migrations.FS(migrations.DialectPostgres)
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	data, err := fs.ReadFile(sub, "20240101000001_initial.up.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "ts_vector TSVECTOR") {
		t.Fatalf("expected ts_vector column in postgres schema")
	}
}

func TestSQLiteMigrationsApplyAndRollBack(t *testing.T) {
	ctx := context.Background()
	db, err := testsupport.NewBunDB()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if got := migrations.DialectOf(db); got != migrations.DialectSQLite {
		t.Fatalf("expected sqlite dialect, got %s", got)
	}

	runner, err := migrations.NewRunner(db)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	pending, err := runner.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending migration, got %v", pending)
	}

	applied, err := runner.Up(ctx)
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("expected one applied migration, got %v", applied)
	}

	tables := []string{
		"users",
		"password_reset_tokens",
		"blog_post_series",
		"blog_posts",
		"blog_post_tags",
		"blog_old_slugs",
		"blog_post_media",
		"blog_post_comments",
	}
	for _, table := range tables {
		var count int
		if err := db.NewRaw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(ctx, &count); err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}

	again, err := runner.Up(ctx)
	if err != nil {
		t.Fatalf("second up: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no-op second run, got %v", again)
	}

	rolled, err := runner.Down(ctx)
	if err != nil {
		t.Fatalf("down: %v", err)
	}
	if len(rolled) != 1 {
		t.Fatalf("expected one rolled back migration, got %v", rolled)
	}
	var count int
	if err := db.NewRaw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'blog_posts'").Scan(ctx, &count); err != nil {
		t.Fatalf("lookup after rollback: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected blog_posts to be dropped")
	}
}
