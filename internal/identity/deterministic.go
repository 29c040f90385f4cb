package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PostUUID keys imported posts by slug so re-imports update in place.
func PostUUID(slug string) uuid.UUID {
	return UUID("go-blog:post:" + strings.ToLower(strings.TrimSpace(slug)))
}

// SeriesUUID keys series by name.
func SeriesUUID(name string) uuid.UUID {
	return UUID("go-blog:series:" + strings.ToLower(strings.TrimSpace(name)))
}

// PageUUID keys static pages by slug.
func PageUUID(slug string) uuid.UUID {
	return UUID("go-blog:page:" + strings.ToLower(strings.TrimSpace(slug)))
}
