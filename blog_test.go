package blog_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/pkg/testsupport"
)

func moduleConfig() blog.Config {
	cfg := blog.DefaultConfig()
	cfg.Auth.JWTSecret = "jwt-secret"
	cfg.Auth.ResetSecret = "reset-secret"
	cfg.Markdown.OEmbed.Enabled = false
	cfg.Commands.Cron = false
	cfg.Logging.Level = "error"
	return cfg
}

func TestDefaultConfigRequiresSecrets(t *testing.T) {
	cfg := blog.DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, blog.ErrAuthSecretRequired) {
		t.Fatalf("expected ErrAuthSecretRequired, got %v", err)
	}
	cfg.Auth.JWTSecret = "jwt-secret"
	if err := cfg.Validate(); !errors.Is(err, blog.ErrResetSecretRequired) {
		t.Fatalf("expected ErrResetSecretRequired, got %v", err)
	}
}

func TestLoadConfigAppliesEnvironment(t *testing.T) {
	cfg, err := blog.LoadConfig("", blog.WithEnvironment(map[string]string{
		"BLOG_AUTH_JWT_SECRET":         "from-env",
		"BLOG_AUTH_RESET_SECRET":       "reset-env",
		"BLOG_POSTS_RESULTS_PER_PAGE":  "5",
		"BLOG_SERVER_ADDRESS":          ":9090",
		"BLOG_MARKDOWN_OEMBED_ENABLED": "false",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-env" || cfg.Blog.ResultsPerPage != 5 || cfg.Server.Address != ":9090" {
		t.Fatalf("environment not applied: %+v", cfg)
	}
	if cfg.Markdown.OEmbed.Enabled {
		t.Fatalf("expected oembed disabled from env")
	}
}

func TestModuleServesEmbeddedPages(t *testing.T) {
	module, err := blog.New(context.Background(), moduleConfig())
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })

	if len(module.Pages().List("")) == 0 {
		t.Fatalf("expected embedded pages")
	}

	handler, err := module.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/pages/about")
	if err != nil {
		t.Fatalf("GET /pages/about: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"slug":"about"`) {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, body)
	}
}

func TestMigrateCreatesSchema(t *testing.T) {
	db, err := testsupport.NewBunDB()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applied, err := blog.Migrate(context.Background(), db)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(applied) == 0 {
		t.Fatalf("expected migrations to be applied")
	}
	if _, err := blog.GetMigrationsFS("postgres"); err != nil {
		t.Fatalf("postgres migrations: %v", err)
	}
}
