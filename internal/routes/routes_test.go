package routes_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/routes"
)

func TestBuilderURLs(t *testing.T) {
	b, err := routes.New(routes.DefaultConfig("https://blog.test/"), "")
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}

	post, err := b.PostURL("hello-world")
	if err != nil || post != "https://blog.test/blog/hello-world" {
		t.Fatalf("unexpected post url %q (%v)", post, err)
	}

	id := uuid.MustParse("6f1c1f9e-8a7b-4a53-9d1b-0f6f2b9c1a10")
	series, err := b.SeriesURL(id)
	if err != nil || series != "https://blog.test/blog/series/"+id.String() {
		t.Fatalf("unexpected series url %q (%v)", series, err)
	}

	reset := b.ResetURLFunc()("abc")
	if reset != "https://blog.test/reset-password/abc" {
		t.Fatalf("unexpected reset url %q", reset)
	}

	list, err := b.BlogListURL([]string{"go"})
	if err != nil || !strings.HasPrefix(list, "https://blog.test/blog?") || !strings.Contains(list, "tags=go") {
		t.Fatalf("unexpected list url %q (%v)", list, err)
	}
	plain, err := b.BlogListURL(nil)
	if err != nil || plain != "https://blog.test/blog" {
		t.Fatalf("unexpected plain list url %q (%v)", plain, err)
	}
}

func TestUnknownGroup(t *testing.T) {
	if _, err := routes.New(routes.DefaultConfig(""), "missing"); err == nil {
		t.Fatalf("expected unknown group error")
	}
}
