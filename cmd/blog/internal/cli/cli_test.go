package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-blog/internal/importer"
)

func testEnv() map[string]string {
	return map[string]string{
		"BLOG_AUTH_JWT_SECRET":         "jwt-secret",
		"BLOG_AUTH_RESET_SECRET":       "reset-secret",
		"BLOG_MARKDOWN_OEMBED_ENABLED": "false",
		"BLOG_LOG_LEVEL":               "error",
	}
}

func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&rootOptions{env: env})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestRenderPrintsHTML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "post.md", "---\ntitle: Preview\ntags: go, cli\n---\n## Hello\n\nSome *text*.\n")

	out, err := run(t, nil, "render", "--json", path)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var payload renderOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if payload.Title != "Preview" || len(payload.Tags) != 2 {
		t.Fatalf("unexpected front matter %+v", payload)
	}
	if !strings.Contains(payload.HTML, "<em>text</em>") {
		t.Fatalf("expected rendered emphasis, got %q", payload.HTML)
	}
}

func TestImportDryRunReportsDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "first.md", "# First Post\n\ntags: go\n\n## Introduction\n\nHello.\n\n## Body\n\nText.\n")
	writeFile(t, dir, "nested/second.md", "---\ntitle: Second Post\ntags: [go]\ndescription: Intro.\n---\nBody.\n")

	out, err := run(t, testEnv(), "import", "--dry-run", dir)
	if err != nil {
		t.Fatalf("import: %v (%s)", err, out)
	}
	var result importer.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if !result.DryRun || len(result.Created) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAdminCreateRequiresPassword(t *testing.T) {
	t.Setenv(adminPasswordEnv, "")
	if _, err := run(t, testEnv(), "admin", "create", "--email", "owner@example.com"); err == nil {
		t.Fatalf("expected missing password error")
	}
}

func TestAdminCreate(t *testing.T) {
	out, err := run(t, testEnv(), "admin", "create",
		"--username", "owner",
		"--email", "owner@example.com",
		"--password", "owner-password",
	)
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if !strings.HasPrefix(out, "created owner") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMigrateRequiresDatabase(t *testing.T) {
	if _, err := run(t, testEnv(), "migrate", "status"); err != errNoDatabase {
		t.Fatalf("expected errNoDatabase, got %v", err)
	}
}

func TestMigrateSQLite(t *testing.T) {
	env := testEnv()
	env["BLOG_DATABASE_DRIVER"] = "sqlite"
	env["BLOG_DATABASE_DSN"] = "file:" + filepath.Join(t.TempDir(), "blog.db") + "?_foreign_keys=on"

	out, err := run(t, env, "migrate", "up")
	if err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if !strings.Contains(out, "applied ") {
		t.Fatalf("expected applied migrations, got %q", out)
	}
	out, err = run(t, env, "migrate", "status")
	if err != nil {
		t.Fatalf("migrate status: %v", err)
	}
	if strings.TrimSpace(out) != "nothing pending" {
		t.Fatalf("expected nothing pending, got %q", out)
	}
}
