package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/internal/permissions"
	"github.com/goliatone/go-blog/internal/users"
	"github.com/goliatone/go-blog/pkg/testsupport"
)

func newBunDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := testsupport.NewBunDB()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := testsupport.CreateTables(context.Background(), db, (*users.User)(nil), (*users.ResetToken)(nil)); err != nil {
		t.Fatalf("%v", err)
	}
	return db
}

func TestBunUserRepository(t *testing.T) {
	ctx := context.Background()
	db := newBunDB(t)

	cacheService, err := repocache.NewCacheService(repocache.DefaultConfig())
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	repo := users.NewBunUserRepositoryWithCache(db, cacheService, repocache.NewDefaultKeySerializer())
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, &users.User{
		ID:           uuid.New(),
		Username:     "ada",
		FullName:     "Ada",
		Email:        "ada@example.com",
		Timezone:     "UTC",
		IsActive:     true,
		PasswordHash: "hash",
		Role:         permissions.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	if err != nil || byEmail.ID != created.ID {
		t.Fatalf("get by email: %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "ada"); err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "missing@example.com"); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	second, err := repo.Create(ctx, &users.User{
		ID:           uuid.New(),
		Username:     "bob",
		FullName:     "Bob",
		Email:        "bob@example.com",
		Timezone:     "UTC",
		IsActive:     true,
		PasswordHash: "hash",
		Role:         permissions.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("create second user: %v", err)
	}
	for _, want := range []*users.User{created, second, created} {
		got, err := repo.GetByEmail(ctx, want.Email)
		if err != nil {
			t.Fatalf("get by email %s: %v", want.Email, err)
		}
		if got.ID != want.ID {
			t.Fatalf("email %s resolved to %s (%s)", want.Email, got.Username, got.Email)
		}
	}

	_, err = repo.Create(ctx, &users.User{
		ID:           uuid.New(),
		Username:     "other",
		FullName:     "Other",
		Email:        "ada@example.com",
		Timezone:     "UTC",
		PasswordHash: "hash",
		Role:         permissions.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if !errors.Is(err, users.ErrDuplicateRecord) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	created.FullName = "Ada Lovelace"
	if _, err := repo.Update(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	reloaded, err := repo.GetByID(ctx, created.ID)
	if err != nil || reloaded.FullName != "Ada Lovelace" {
		t.Fatalf("expected update to persist, got %+v (%v)", reloaded, err)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := users.NewBunUserRepository(db).GetByID(ctx, created.ID); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestBunResetTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := users.NewBunResetTokenRepository(newBunDB(t))
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	userID := uuid.New()

	for i, hash := range []string{"old", "fresh"} {
		created := now.Add(time.Duration(i) * 20 * time.Minute)
		if _, err := repo.Create(ctx, &users.ResetToken{
			ID:        uuid.New(),
			UserID:    userID,
			QueryHash: hash,
			CreatedAt: created,
			ExpiresAt: created.Add(15 * time.Minute),
		}); err != nil {
			t.Fatalf("create token %s: %v", hash, err)
		}
	}

	removed, err := repo.DeleteCreatedBefore(ctx, now.Add(10*time.Minute))
	if err != nil || removed != 1 {
		t.Fatalf("delete created before: removed=%d err=%v", removed, err)
	}
	if _, err := repo.GetByQueryHash(ctx, "old"); !errors.Is(err, users.ErrResetTokenNotFound) {
		t.Fatalf("expected old token removed, got %v", err)
	}
	if _, err := repo.GetByQueryHash(ctx, "fresh"); err != nil {
		t.Fatalf("get fresh token: %v", err)
	}
	removed, err = repo.DeleteByUser(ctx, userID)
	if err != nil || removed != 1 {
		t.Fatalf("delete by user: removed=%d err=%v", removed, err)
	}
}
