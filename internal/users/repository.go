package users

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewUserRepository creates a repository for User entities keyed by username.
func NewUserRepository(db *bun.DB) repository.Repository[*User] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			u.ID = id
		},
		GetIdentifier: func() string {
			return "username"
		},
		GetIdentifierValue: func(u *User) string {
			return u.Username
		},
	})
}

// NewResetTokenRepository creates a repository for reset tokens keyed by
// their query hash.
func NewResetTokenRepository(db *bun.DB) repository.Repository[*ResetToken] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ResetToken]{
		NewRecord: func() *ResetToken { return &ResetToken{} },
		GetID: func(t *ResetToken) uuid.UUID {
			return t.ID
		},
		SetID: func(t *ResetToken, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "query_hash"
		},
		GetIdentifierValue: func(t *ResetToken) string {
			return t.QueryHash
		},
	})
}
