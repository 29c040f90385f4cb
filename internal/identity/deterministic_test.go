package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDIsDeterministic(t *testing.T) {
	first := PostUUID("Hello-World")
	second := PostUUID(" hello-world ")
	if first != second {
		t.Fatalf("expected normalised keys to match: %s != %s", first, second)
	}
	if first == uuid.Nil {
		t.Fatalf("expected non-nil uuid")
	}
}

func TestUUIDSeparatesNamespaces(t *testing.T) {
	if PostUUID("about") == PageUUID("about") {
		t.Fatalf("post and page ids must not collide")
	}
	if SeriesUUID("about") == PostUUID("about") {
		t.Fatalf("series and post ids must not collide")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := UUID("   "); got != uuid.Nil {
		t.Fatalf("expected nil uuid for blank key, got %s", got)
	}
}
