package users

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository exposes persistence operations for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ResetTokenRepository exposes persistence operations for reset tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *ResetToken) (*ResetToken, error)
	GetByQueryHash(ctx context.Context, hash string) (*ResetToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}
