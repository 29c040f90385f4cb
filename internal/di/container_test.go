package di_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/permissions"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/users"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

func testConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.JWTSecret = "jwt-secret"
	cfg.Auth.ResetSecret = "reset-secret"
	cfg.Markdown.OEmbed.Enabled = false
	cfg.Commands.Cron = false
	return cfg
}

func testPages() di.Option {
	return di.WithPagesSource(fstest.MapFS{
		"pages/about.md": {Data: []byte("---\ntitle: About\n---\n# About\n\nHi.\n")},
	}, "pages")
}

func TestMemoryContainerServesAPI(t *testing.T) {
	rec := newRecordingProvider()
	container, err := di.NewContainer(context.Background(), testConfig(),
		di.WithLoggerProvider(rec),
		testPages(),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if container.BunDB() != nil {
		t.Fatalf("expected in-memory stores without a database driver")
	}
	if entry := rec.find("container.ready"); entry == nil {
		t.Fatalf("expected container.ready log entry")
	} else if got := entry.fields["module"]; got != "blog.di" {
		t.Fatalf("expected module field blog.di, got %v", got)
	}

	handler, err := container.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	for _, path := range []string{"/blog/posts", "/pages/about"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestContainerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	if _, err := di.NewContainer(context.Background(), cfg); err == nil {
		t.Fatalf("expected validation error for missing jwt secret")
	}
}

func TestConfigureLoggerProviderUsesGoLogger(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := di.NewContainer(context.Background(), cfg, testPages())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if _, ok := container.LoggerProvider().(*gologger.Provider); !ok {
		t.Fatalf("expected go-logger provider, got %T", container.LoggerProvider())
	}
}

func TestSQLiteContainerMigratesAndCaches(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	cfg.Database.Migrate = true
	cfg.Cache.Enabled = true

	container, err := di.NewContainer(ctx, cfg, testPages())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if container.BunDB() == nil {
		t.Fatalf("expected sqlite database to be opened")
	}

	admin, created, err := container.UserService().EnsureAdmin(ctx, users.CreateRequest{
		Username: "owner",
		FullName: "Owner",
		Email:    "owner@example.com",
		Password: "owner-password",
	})
	if err != nil || !created {
		t.Fatalf("ensure admin: created=%v err=%v", created, err)
	}

	post, err := container.BlogService().SavePost(permissions.WithRole(ctx, permissions.RoleAdmin), blog.SavePostRequest{
		Title:           "Hello SQLite",
		MarkdownContent: "Some **content**.",
		Tags:            []string{"go"},
		IsPublished:     true,
		CanComment:      true,
	})
	if err != nil {
		t.Fatalf("save post: %v", err)
	}
	lookup, err := container.BlogService().GetPostBySlug(ctx, post.Slug)
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if lookup.Post.ID != post.ID || !strings.Contains(lookup.Post.HTMLContent, "<strong>content</strong>") {
		t.Fatalf("unexpected post %+v", lookup.Post)
	}

	account, err := container.Authenticator().Authenticate(ctx, "owner", "owner-password")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if account.ID != admin.ID {
		t.Fatalf("expected authenticated account %s, got %s", admin.ID, account.ID)
	}
}

type recordingProvider struct {
	mu      sync.Mutex
	entries []recordedEntry
}

type recordedEntry struct {
	msg    string
	fields map[string]any
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{}
}

func (p *recordingProvider) GetLogger(name string) interfaces.Logger {
	return &recordingLogger{provider: p, fields: map[string]any{"logger": name}}
}

func (p *recordingProvider) find(msg string) *recordedEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.entries {
		if p.entries[i].msg == msg {
			return &p.entries[i]
		}
	}
	return nil
}

type recordingLogger struct {
	provider *recordingProvider
	fields   map[string]any
}

func (l *recordingLogger) Trace(msg string, args ...any) { l.log(msg, args...) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.log(msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log(msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log(msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log(msg, args...) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.log(msg, args...) }

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingLogger{provider: l.provider, fields: merged}
}

func (l *recordingLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l *recordingLogger) log(msg string, args ...any) {
	fields := make(map[string]any, len(l.fields)+len(args)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	l.provider.mu.Lock()
	l.provider.entries = append(l.provider.entries, recordedEntry{msg: msg, fields: fields})
	l.provider.mu.Unlock()
}
