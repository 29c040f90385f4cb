package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const usersNamespace = "users"

// BunUserRepository implements UserRepository with optional caching.
// Lookups filtered by a closure go to store: the cache keys a processor by
// its code pointer, not by the values it captures.
type BunUserRepository struct {
	repo         repository.Repository[*User]
	store        repository.Repository[*User]
	cacheService cache.CacheService
	cachePrefix  string
}

// NewBunUserRepository creates a user repository without caching.
func NewBunUserRepository(db *bun.DB) *BunUserRepository {
	return NewBunUserRepositoryWithCache(db, nil, nil)
}

// NewBunUserRepositoryWithCache creates a user repository with caching services.
func NewBunUserRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunUserRepository {
	base := NewUserRepository(db)
	r := &BunUserRepository{repo: base, store: base}
	if cacheService != nil && serializer != nil {
		r.repo = repositorycache.New(base, cacheService, serializer)
		r.cacheService = cacheService
		r.cachePrefix = usersNamespace + cache.KeySeparator
	}
	return r
}

func (r *BunUserRepository) Create(ctx context.Context, user *User) (*User, error) {
	record, err := r.repo.Create(ctx, user)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return record, r.invalidate(ctx)
}

func (r *BunUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "user", id.String())
	}
	return record, nil
}

func (r *BunUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	records, _, err := r.store.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.email = ?", email)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "user", email)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "user", Key: email}
	}
	return records[0], nil
}

func (r *BunUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	record, err := r.repo.GetByIdentifier(ctx, username)
	if err != nil {
		return nil, mapRepositoryError(err, "user", username)
	}
	return record, nil
}

func (r *BunUserRepository) List(ctx context.Context) ([]*User, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.created_at ASC").OrderExpr("?TableAlias.username ASC")
		}),
	)
	return records, err
}

func (r *BunUserRepository) Update(ctx context.Context, user *User) (*User, error) {
	record, err := r.repo.Update(ctx, user,
		repository.UpdateByID(user.ID.String()),
		repository.UpdateColumns(
			"username",
			"full_name",
			"email",
			"timezone",
			"is_active",
			"avatar_location",
			"password_hash",
			"role",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapWriteError(mapRepositoryError(err, "user", user.ID.String()))
	}
	return record, r.invalidate(ctx)
}

func (r *BunUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, &User{ID: id}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return r.invalidate(ctx)
}

func (r *BunUserRepository) invalidate(ctx context.Context) error {
	if r.cacheService == nil {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

// BunResetTokenRepository implements ResetTokenRepository.
type BunResetTokenRepository struct {
	db   *bun.DB
	repo repository.Repository[*ResetToken]
}

// NewBunResetTokenRepository creates a reset token repository.
func NewBunResetTokenRepository(db *bun.DB) *BunResetTokenRepository {
	return &BunResetTokenRepository{db: db, repo: NewResetTokenRepository(db)}
}

func (r *BunResetTokenRepository) Create(ctx context.Context, token *ResetToken) (*ResetToken, error) {
	record, err := r.repo.Create(ctx, token)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return record, nil
}

func (r *BunResetTokenRepository) GetByQueryHash(ctx context.Context, hash string) (*ResetToken, error) {
	record, err := r.repo.GetByIdentifier(ctx, hash)
	if err != nil {
		return nil, mapRepositoryError(err, "reset_token", "")
	}
	return record, nil
}

func (r *BunResetTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.repo.Delete(ctx, &ResetToken{ID: id})
}

func (r *BunResetTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.deleteWhere(ctx, "?TableAlias.user_id = ?", userID)
}

func (r *BunResetTokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return r.deleteWhere(ctx, "?TableAlias.created_at < ?", cutoff)
}

func (r *BunResetTokenRepository) deleteWhere(ctx context.Context, query string, arg any) (int, error) {
	res, err := r.db.NewDelete().
		Model((*ResetToken)(nil)).
		Where(query, arg).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete reset tokens: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

// mapWriteError turns unique violations into a ConstraintError naming the
// column when the driver message mentions it.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	for cause := err; cause != nil; cause = errors.Unwrap(cause) {
		msg := strings.ToLower(cause.Error())
		if !strings.Contains(msg, "unique constraint") &&
			!strings.Contains(msg, "duplicate key") &&
			!strings.Contains(msg, "sqlstate=23505") {
			continue
		}
		switch {
		case strings.Contains(msg, "email"):
			return &ConstraintError{Field: "email"}
		case strings.Contains(msg, "username"):
			return &ConstraintError{Field: "username"}
		}
		return &ConstraintError{}
	}
	return err
}
