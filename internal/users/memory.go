package users

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryUserRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*User
}

// NewMemoryUserRepository constructs an in-memory user repository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{byID: make(map[uuid.UUID]*User)}
}

func (m *memoryUserRepository) Create(_ context.Context, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if field := m.conflictLocked(user); field != "" {
		return nil, &ConstraintError{Field: field}
	}
	cloned := cloneUser(user)
	m.byID[cloned.ID] = cloned
	return cloneUser(cloned), nil
}

func (m *memoryUserRepository) conflictLocked(user *User) string {
	for id, existing := range m.byID {
		if id == user.ID {
			continue
		}
		if strings.EqualFold(existing.Username, user.Username) {
			return "username"
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return "email"
		}
	}
	return ""
}

func (m *memoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "user", Key: id.String()}
	}
	return cloneUser(record), nil
}

func (m *memoryUserRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	return m.find(email, func(u *User) string { return u.Email })
}

func (m *memoryUserRepository) GetByUsername(_ context.Context, username string) (*User, error) {
	return m.find(username, func(u *User) string { return u.Username })
}

func (m *memoryUserRepository) find(value string, field func(*User) string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.byID {
		if field(record) == value {
			return cloneUser(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "user", Key: value}
}

func (m *memoryUserRepository) List(_ context.Context) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*User, 0, len(m.byID))
	for _, record := range m.byID {
		out = append(out, cloneUser(record))
	}
	slices.SortFunc(out, func(a, b *User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Username, b.Username)
	})
	return out, nil
}

func (m *memoryUserRepository) Update(_ context.Context, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[user.ID]; !ok {
		return nil, &NotFoundError{Resource: "user", Key: user.ID.String()}
	}
	if field := m.conflictLocked(user); field != "" {
		return nil, &ConstraintError{Field: field}
	}
	cloned := cloneUser(user)
	m.byID[cloned.ID] = cloned
	return cloneUser(cloned), nil
}

func (m *memoryUserRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return &NotFoundError{Resource: "user", Key: id.String()}
	}
	delete(m.byID, id)
	return nil
}

func cloneUser(user *User) *User {
	if user == nil {
		return nil
	}
	cloned := *user
	if user.AvatarLocation != nil {
		value := *user.AvatarLocation
		cloned.AvatarLocation = &value
	}
	return &cloned
}

type memoryResetTokenRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*ResetToken
}

// NewMemoryResetTokenRepository constructs an in-memory reset token store.
func NewMemoryResetTokenRepository() ResetTokenRepository {
	return &memoryResetTokenRepository{byID: make(map[uuid.UUID]*ResetToken)}
}

func (m *memoryResetTokenRepository) Create(_ context.Context, token *ResetToken) (*ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if existing.QueryHash == token.QueryHash {
			return nil, ErrDuplicateRecord
		}
	}
	cloned := *token
	m.byID[cloned.ID] = &cloned
	out := cloned
	return &out, nil
}

func (m *memoryResetTokenRepository) GetByQueryHash(_ context.Context, hash string) (*ResetToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.byID {
		if record.QueryHash == hash {
			out := *record
			return &out, nil
		}
	}
	return nil, &NotFoundError{Resource: "reset_token"}
}

func (m *memoryResetTokenRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return &NotFoundError{Resource: "reset_token", Key: id.String()}
	}
	delete(m.byID, id)
	return nil
}

func (m *memoryResetTokenRepository) DeleteByUser(_ context.Context, userID uuid.UUID) (int, error) {
	return m.deleteWhere(func(t *ResetToken) bool { return t.UserID == userID }), nil
}

func (m *memoryResetTokenRepository) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int, error) {
	return m.deleteWhere(func(t *ResetToken) bool { return t.CreatedAt.Before(cutoff) }), nil
}

func (m *memoryResetTokenRepository) deleteWhere(match func(*ResetToken) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, record := range m.byID {
		if match(record) {
			delete(m.byID, id)
			removed++
		}
	}
	return removed
}
