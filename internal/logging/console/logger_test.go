package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/console"
)

func TestConsoleLoggerWritesSortedFields(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)

	provider := console.NewProvider(console.Options{
		Writer:   &buf,
		TimeFunc: func() time.Time { return now },
	})

	ctx := logging.ContextWithFields(context.Background(), map[string]any{"request_id": "req-1"})
	logger := provider.GetLogger("blog.posts").WithContext(ctx)
	logger.Info("post.saved", "slug", "hello-world", "error", errors.New("two words"), "likes", 3)

	got := strings.TrimSpace(buf.String())
	want := `2024-03-14T15:09:26Z INFO post.saved error="two words" likes=3 logger=blog.posts request_id=req-1 slug=hello-world`
	if got != want {
		t.Fatalf("unexpected entry\nwant: %s\ngot:  %s", want, got)
	}
}

func TestConsoleLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	level := console.ParseLevel("warning")
	provider := console.NewProvider(console.Options{Writer: &buf, MinLevel: &level})

	logger := provider.GetLogger("blog.test")
	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "WARN kept") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConsoleLoggerOddArgsBecomePositional(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf})
	provider.GetLogger("x").Debug("odd", "key", "value", "dangling")

	if !strings.Contains(buf.String(), "field_1=dangling") {
		t.Fatalf("expected positional field, got %q", buf.String())
	}
}
