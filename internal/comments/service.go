package comments

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/permissions"
	fieldvalidation "github.com/goliatone/go-blog/internal/validation"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// PostLookup resolves the post a comment targets.
type PostLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*blog.Post, error)
}

// Service manages post comments.
type Service interface {
	Preview(ctx context.Context, req CreateRequest) (*Comment, error)
	Create(ctx context.Context, req CreateRequest) (*Comment, error)
	Update(ctx context.Context, actor auth.Principal, id uuid.UUID, content string) (*Comment, error)
	Delete(ctx context.Context, actor auth.Principal, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListForPost(ctx context.Context, actor auth.Principal, postID uuid.UUID) ([]View, error)
}

// CreateRequest carries a new comment. Either UserID or Name identifies the
// author.
type CreateRequest struct {
	PostID  uuid.UUID  `json:"post_id"`
	Content string     `json:"content"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	UserID  *uuid.UUID `json:"user_id,omitempty"`
	GuestID string     `json:"guest_id"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required, validation.Length(1, 10000)),
		validation.Field(&r.Name, validation.Length(0, 100)),
		validation.Field(&r.Email, is.EmailFormat),
	)
}

func (r CreateRequest) author() error {
	if r.UserID == nil && strings.TrimSpace(r.Name) == "" {
		return fieldvalidation.FieldErrors{"name": {MsgAuthorRequired}}
	}
	return nil
}

// CanEdit reports whether actor authored comment, either signed in or as the
// same guest.
func CanEdit(comment *Comment, actor auth.Principal) bool {
	if comment == nil {
		return false
	}
	if comment.UserID != nil && actor.IsAuthenticated() && *comment.UserID == actor.UserID {
		return true
	}
	return comment.GuestID != "" && comment.GuestID == actor.GuestID
}

// CanDelete extends CanEdit to admins.
func CanDelete(comment *Comment, actor auth.Principal) bool {
	return CanEdit(comment, actor) || (comment != nil && actor.IsAdmin())
}

// ServiceOption configures the comment service.
type ServiceOption func(*service)

// WithClock overrides the internal time source.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logging.Ensure(logger)
	}
}

type service struct {
	comments CommentRepository
	posts    PostLookup
	renderer markdown.Renderer

	now    func() time.Time
	logger interfaces.Logger
}

// NewService constructs the comment service.
func NewService(comments CommentRepository, posts PostLookup, renderer markdown.Renderer, opts ...ServiceOption) (Service, error) {
	if renderer == nil {
		return nil, ErrRendererRequired
	}
	if posts == nil {
		return nil, ErrPostLookupMissing
	}
	s := &service{
		comments: comments,
		posts:    posts,
		renderer: renderer,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Preview renders the comment without storing it.
func (s *service) Preview(ctx context.Context, req CreateRequest) (*Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, fieldvalidation.FromOzzo(err)
	}
	if err := req.author(); err != nil {
		return nil, err
	}
	return s.build(ctx, req)
}

func (s *service) build(ctx context.Context, req CreateRequest) (*Comment, error) {
	html, err := s.renderer.RenderComment(ctx, req.Content)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &Comment{
		ID:              uuid.New(),
		PostID:          req.PostID,
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		GuestID:         req.GuestID,
		UserID:          req.UserID,
		MarkdownContent: req.Content,
		HTMLContent:     html,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, fieldvalidation.FromOzzo(err)
	}
	if err := req.author(); err != nil {
		return nil, err
	}
	post, err := s.visiblePost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	if !post.CanComment {
		return nil, ErrCommentsDisabled
	}

	comment, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	created, err := s.comments.Create(ctx, comment)
	if err != nil {
		return nil, err
	}
	s.logger.Info("blog.comment.created", "comment_id", created.ID, "post_id", created.PostID)
	return created, nil
}

// Update replaces the comment body. A signed in author takes ownership of a
// comment written as a guest.
func (s *service) Update(ctx context.Context, actor auth.Principal, id uuid.UUID, content string) (*Comment, error) {
	if err := validation.Validate(content, validation.Required, validation.Length(1, 10000)); err != nil {
		return nil, fieldvalidation.FieldErrors{"content": {err.Error()}}
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanEdit(comment, actor) {
		return nil, permissions.Denied(MsgEditForbidden)
	}
	html, err := s.renderer.RenderComment(ctx, content)
	if err != nil {
		return nil, err
	}
	comment.MarkdownContent = content
	comment.HTMLContent = html
	comment.UpdatedAt = s.now()
	if actor.IsAuthenticated() {
		userID := actor.UserID
		comment.UserID = &userID
	}
	return s.comments.Update(ctx, comment)
}

func (s *service) Delete(ctx context.Context, actor auth.Principal, id uuid.UUID) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanDelete(comment, actor) {
		return permissions.Denied(MsgDeleteForbidden)
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("blog.comment.deleted", "comment_id", id, "by_admin", !CanEdit(comment, actor))
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Comment, error) {
	return s.comments.GetByID(ctx, id)
}

func (s *service) ListForPost(ctx context.Context, actor auth.Principal, postID uuid.UUID) ([]View, error) {
	if _, err := s.visiblePost(ctx, postID); err != nil {
		return nil, err
	}
	records, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(records))
	for _, record := range records {
		views = append(views, NewView(record, actor))
	}
	return views, nil
}

// visiblePost loads postID, reporting drafts as missing to callers that may
// not read them.
func (s *service) visiblePost(ctx context.Context, postID uuid.UUID) (*blog.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished && !permissions.Allowed(ctx, permissions.ActionReadUnpublished) {
		return nil, &blog.NotFoundError{Resource: "post", Key: postID.String()}
	}
	return post, nil
}
