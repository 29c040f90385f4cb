package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/permissions"
)

// Principal is the caller behind a request: an authenticated account or a
// guest identified only by its guest cookie.
type Principal struct {
	UserID   uuid.UUID        `json:"user_id"`
	Username string           `json:"username"`
	Role     permissions.Role `json:"role"`
	GuestID  string           `json:"guest_id,omitempty"`
}

// Guest returns an unauthenticated principal.
func Guest(guestID string) Principal {
	return Principal{Role: permissions.RoleUnauthenticated, GuestID: guestID}
}

// IsAuthenticated reports whether the principal is backed by an account.
func (p Principal) IsAuthenticated() bool {
	return p.UserID != uuid.Nil
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.IsAuthenticated() && p.Role.IsAdmin()
}

// HasPermission checks action against the principal's role.
func (p Principal) HasPermission(action permissions.Action) bool {
	return permissions.HasPermission(action, p.Role)
}

type principalKey struct{}

// WithPrincipal stores p on ctx together with its role checker.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if p.Role == "" {
		p.Role = permissions.RoleUnauthenticated
	}
	ctx = context.WithValue(ctx, principalKey{}, p)
	return permissions.WithRole(ctx, p.Role)
}

// PrincipalFromContext returns the stored principal, or an anonymous guest.
func PrincipalFromContext(ctx context.Context) Principal {
	if ctx != nil {
		if p, ok := ctx.Value(principalKey{}).(Principal); ok {
			return p
		}
	}
	return Guest("")
}
