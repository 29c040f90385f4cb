package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role is the coarse access level attached to every principal.
type Role string

const (
	RoleUnauthenticated Role = "unauthenticated"
	RoleUser            Role = "user"
	RoleReviewer        Role = "reviewer"
	RoleAdmin           Role = "admin"
)

// Action names a guarded operation.
type Action string

const (
	// ActionEditPost covers creating and editing posts, series and media.
	ActionEditPost Action = "edit_bp"
	// ActionReadUnpublished allows listing and reading drafts.
	ActionReadUnpublished Action = "read_unpublished_bp"
)

var ErrPermissionDenied = errors.New("permissions: denied")

var ErrUnknownRole = errors.New("permissions: unknown role")

var grants = map[Action]map[Role]struct{}{
	ActionEditPost:        {RoleAdmin: {}},
	ActionReadUnpublished: {RoleReviewer: {}, RoleAdmin: {}},
}

// Error reports a denied action. It unwraps to ErrPermissionDenied.
type Error struct {
	Action  Action
	Message string
}

func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Action == "" {
		return "permission denied"
	}
	return "permission denied: " + string(e.Action)
}

func (e Error) Unwrap() error {
	return ErrPermissionDenied
}

// Denied builds a permission error carrying a user facing message.
func Denied(message string) error {
	return Error{Message: message}
}

// ParseRole validates a role name.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleUnauthenticated, RoleUser, RoleReviewer, RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// IsAdmin reports whether r is the admin role.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// HasPermission reports whether role may perform action. Unknown actions are
// denied.
func HasPermission(action Action, role Role) bool {
	roles, ok := grants[action]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}

// Checker decides whether an action is allowed.
type Checker interface {
	Allowed(action Action) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(action Action) bool

func (fn CheckerFunc) Allowed(action Action) bool {
	return fn(action)
}

// RoleChecker grants actions according to the role table.
func RoleChecker(role Role) Checker {
	return CheckerFunc(func(action Action) bool {
		return HasPermission(action, role)
	})
}

type contextKey string

const (
	checkerKey contextKey = "blog.permissions.checker"
	roleKey    contextKey = "blog.permissions.role"
)

// WithRole stores role on ctx and installs the matching role checker.
func WithRole(ctx context.Context, role Role) context.Context {
	if ctx == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, roleKey, role)
	return WithChecker(ctx, RoleChecker(role))
}

// WithChecker stores a custom checker on ctx.
func WithChecker(ctx context.Context, checker Checker) context.Context {
	if ctx == nil || checker == nil {
		return ctx
	}
	return context.WithValue(ctx, checkerKey, checker)
}

// RoleFromContext returns the stored role, or RoleUnauthenticated.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return RoleUnauthenticated
	}
	if role, ok := ctx.Value(roleKey).(Role); ok && role != "" {
		return role
	}
	return RoleUnauthenticated
}

// Allowed reports whether the context grants action. Contexts without a
// checker fall back to the unauthenticated role.
func Allowed(ctx context.Context, action Action) bool {
	if ctx != nil {
		if checker, ok := ctx.Value(checkerKey).(Checker); ok {
			return checker.Allowed(action)
		}
	}
	return HasPermission(action, RoleUnauthenticated)
}

// Require returns an Error when the context does not grant action.
func Require(ctx context.Context, action Action) error {
	if Allowed(ctx, action) {
		return nil
	}
	return Error{Action: action}
}
