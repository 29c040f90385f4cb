package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/permissions"
)

// DefaultTimezone is assigned to accounts that do not pick one.
const DefaultTimezone = "UTC"

// User is a registered account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             uuid.UUID        `bun:",pk,type:uuid" json:"id"`
	Username       string           `bun:"username,notnull,unique" json:"username"`
	FullName       string           `bun:"full_name,notnull" json:"full_name"`
	Email          string           `bun:"email,notnull,unique" json:"email"`
	Timezone       string           `bun:"timezone,notnull,default:'UTC'" json:"timezone"`
	IsActive       bool             `bun:"is_active,notnull,default:true" json:"is_active"`
	AvatarLocation *string          `bun:"avatar_location" json:"avatar_location,omitempty"`
	PasswordHash   string           `bun:"password_hash,notnull" json:"-"`
	Role           permissions.Role `bun:"role,notnull" json:"role"`
	CreatedAt      time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Account returns the login view of u.
func (u *User) Account() auth.Account {
	return auth.Account{
		ID:           u.ID,
		Username:     u.Username,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}
}

// Principal returns the request principal for u.
func (u *User) Principal() auth.Principal {
	return u.Account().Principal()
}

// ResetToken is a pending password reset. Only a keyed hash of the query
// sent to the user is stored.
type ResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	QueryHash string    `bun:"query_hash,notnull,unique" json:"-"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	ExpiresAt time.Time `bun:"expires_at,notnull" json:"expires_at"`
}

// Expired reports whether the token is past its expiry at now.
func (t *ResetToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// ResetRequest is the outcome of a password reset request.
type ResetRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Query     string    `json:"query"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
