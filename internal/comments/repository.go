package comments

import (
	"context"
	"fmt"
	"slices"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CommentRepository exposes persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) (*Comment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]*Comment, error)
	Update(ctx context.Context, comment *Comment) (*Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewCommentRepository creates a repository for Comment entities.
func NewCommentRepository(db *bun.DB) repository.Repository[*Comment] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Comment]{
		NewRecord: func() *Comment { return &Comment{} },
		GetID: func(c *Comment) uuid.UUID {
			return c.ID
		},
		SetID: func(c *Comment, id uuid.UUID) {
			c.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(c *Comment) string {
			return c.ID.String()
		},
	})
}

// BunCommentRepository implements CommentRepository on top of bun.
type BunCommentRepository struct {
	repo repository.Repository[*Comment]
}

// NewBunCommentRepository creates a comment repository.
func NewBunCommentRepository(db *bun.DB) *BunCommentRepository {
	return &BunCommentRepository{repo: NewCommentRepository(db)}
}

func (r *BunCommentRepository) Create(ctx context.Context, comment *Comment) (*Comment, error) {
	return r.repo.Create(ctx, comment)
}

func (r *BunCommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id)
	}
	return record, nil
}

func (r *BunCommentRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]*Comment, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.post_id = ?", postID).
				OrderExpr("?TableAlias.created_at ASC").
				OrderExpr("?TableAlias.id ASC")
		}),
	)
	return records, err
}

func (r *BunCommentRepository) Update(ctx context.Context, comment *Comment) (*Comment, error) {
	record, err := r.repo.Update(ctx, comment,
		repository.UpdateByID(comment.ID.String()),
		repository.UpdateColumns("user_id", "markdown_content", "html_content", "updated_at"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, comment.ID)
	}
	return record, nil
}

func (r *BunCommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.repo.Delete(ctx, &Comment{ID: id})
}

func mapRepositoryError(err error, id uuid.UUID) error {
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Key: id.String()}
	}
	return fmt.Errorf("comment repository error: %w", err)
}

type memoryCommentRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Comment
}

// NewMemoryCommentRepository constructs an in-memory comment store.
func NewMemoryCommentRepository() CommentRepository {
	return &memoryCommentRepository{byID: make(map[uuid.UUID]*Comment)}
}

func (m *memoryCommentRepository) Create(_ context.Context, comment *Comment) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneComment(comment)
	m.byID[cloned.ID] = cloned
	return cloneComment(cloned), nil
}

func (m *memoryCommentRepository) GetByID(_ context.Context, id uuid.UUID) (*Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Key: id.String()}
	}
	return cloneComment(record), nil
}

func (m *memoryCommentRepository) ListByPost(_ context.Context, postID uuid.UUID) ([]*Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Comment, 0)
	for _, record := range m.byID {
		if record.PostID == postID {
			out = append(out, cloneComment(record))
		}
	}
	slices.SortFunc(out, func(a, b *Comment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (m *memoryCommentRepository) Update(_ context.Context, comment *Comment) (*Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[comment.ID]; !ok {
		return nil, &NotFoundError{Key: comment.ID.String()}
	}
	cloned := cloneComment(comment)
	m.byID[cloned.ID] = cloned
	return cloneComment(cloned), nil
}

func (m *memoryCommentRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return &NotFoundError{Key: id.String()}
	}
	delete(m.byID, id)
	return nil
}

func cloneComment(comment *Comment) *Comment {
	cloned := *comment
	if comment.UserID != nil {
		id := *comment.UserID
		cloned.UserID = &id
	}
	return &cloned
}
