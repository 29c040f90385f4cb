package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/permissions"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Account is the slice of a user record needed to sign in.
type Account struct {
	ID           uuid.UUID
	Username     string
	Role         permissions.Role
	PasswordHash string
	IsActive     bool
}

// Principal converts the account into a request principal.
func (a Account) Principal() Principal {
	return Principal{UserID: a.ID, Username: a.Username, Role: a.Role}
}

// AccountLookup finds accounts by id or by their login identifiers.
type AccountLookup interface {
	AccountByID(ctx context.Context, id uuid.UUID) (Account, error)
	AccountByEmail(ctx context.Context, email string) (Account, error)
	AccountByUsername(ctx context.Context, username string) (Account, error)
}

// Authenticator checks credentials against an AccountLookup.
type Authenticator struct {
	accounts AccountLookup
	logger   interfaces.Logger
}

// NewAuthenticator wires an authenticator. A nil logger is replaced with a
// no-op logger.
func NewAuthenticator(accounts AccountLookup, logger interfaces.Logger) *Authenticator {
	return &Authenticator{accounts: accounts, logger: logging.Ensure(logger)}
}

// Authenticate resolves usernameOrEmail (email when it contains "@") and
// verifies the password. Every failure reports ErrNotAuthenticated.
func (a *Authenticator) Authenticate(ctx context.Context, usernameOrEmail, password string) (Account, error) {
	login := strings.TrimSpace(usernameOrEmail)
	var (
		account Account
		err     error
	)
	if strings.Contains(login, "@") {
		account, err = a.accounts.AccountByEmail(ctx, login)
	} else {
		account, err = a.accounts.AccountByUsername(ctx, login)
	}
	if err != nil {
		a.logger.Debug("auth.authenticate.unknown_account", "login", login)
		return Account{}, ErrNotAuthenticated
	}
	if !account.IsActive || !VerifyPassword(password, account.PasswordHash) {
		a.logger.Debug("auth.authenticate.rejected", "user_id", account.ID)
		return Account{}, ErrNotAuthenticated
	}
	return account, nil
}

// Resolve reloads the account behind a token principal so role changes and
// deletions apply immediately. Missing or inactive accounts report
// ErrNotValidated.
func (a *Authenticator) Resolve(ctx context.Context, p Principal) (Principal, error) {
	if !p.IsAuthenticated() {
		return Principal{}, ErrNotValidated
	}
	account, err := a.accounts.AccountByID(ctx, p.UserID)
	if err != nil {
		a.logger.Debug("auth.resolve.unknown_account", "user_id", p.UserID)
		return Principal{}, ErrNotValidated
	}
	if !account.IsActive {
		a.logger.Debug("auth.resolve.inactive", "user_id", account.ID)
		return Principal{}, ErrNotValidated
	}
	current := account.Principal()
	current.GuestID = p.GuestID
	return current, nil
}
