package blogcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/comments"
	"github.com/goliatone/go-blog/internal/users"
)

const (
	togglePostLikeMessageType       = "blog.post.like"
	incrementPostViewsMessageType   = "blog.post.view"
	createCommentMessageType        = "blog.comment.create"
	deleteCommentMessageType        = "blog.comment.delete"
	requestPasswordResetMessageType = "users.password_reset.request"
	purgeResetTokensMessageType     = "users.password_reset.purge"
)

var requiredUUID = validation.By(func(value any) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return validation.ErrRequired
	}
	return nil
})

// TogglePostLikeCommand adds or removes one like on a post.
type TogglePostLikeCommand struct {
	PostID uuid.UUID `json:"post_id"`
	Like   bool      `json:"like"`

	// Result receives the updated post.
	Result func(*blog.Post) `json:"-"`
}

// Type implements command.Message.
func (TogglePostLikeCommand) Type() string { return togglePostLikeMessageType }

// Validate satisfies command.Message.
func (m TogglePostLikeCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.PostID, requiredUUID),
	)
}

// IncrementPostViewsCommand records one read of a post.
type IncrementPostViewsCommand struct {
	PostID uuid.UUID `json:"post_id"`

	Result func(*blog.Post) `json:"-"`
}

// Type implements command.Message.
func (IncrementPostViewsCommand) Type() string { return incrementPostViewsMessageType }

// Validate satisfies command.Message.
func (m IncrementPostViewsCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.PostID, requiredUUID),
	)
}

// CreateCommentCommand posts a comment on behalf of a user or guest.
type CreateCommentCommand struct {
	Request comments.CreateRequest `json:"request"`

	Result func(*comments.Comment) `json:"-"`
}

// Type implements command.Message.
func (CreateCommentCommand) Type() string { return createCommentMessageType }

// Validate satisfies command.Message.
func (m CreateCommentCommand) Validate() error {
	if m.Request.PostID == uuid.Nil {
		return validation.Errors{"post_id": validation.ErrRequired}
	}
	return m.Request.Validate()
}

// DeleteCommentCommand removes a comment when Actor may delete it.
type DeleteCommentCommand struct {
	CommentID uuid.UUID      `json:"comment_id"`
	Actor     auth.Principal `json:"actor"`
}

// Type implements command.Message.
func (DeleteCommentCommand) Type() string { return deleteCommentMessageType }

// Validate satisfies command.Message.
func (m DeleteCommentCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.CommentID, requiredUUID),
	)
}

// RequestPasswordResetCommand issues a reset link for Email.
type RequestPasswordResetCommand struct {
	Email string `json:"email"`

	// Result receives the issued request, or nil for unknown addresses.
	Result func(*users.ResetRequest) `json:"-"`
}

// Type implements command.Message.
func (RequestPasswordResetCommand) Type() string { return requestPasswordResetMessageType }

// Validate satisfies command.Message.
func (m RequestPasswordResetCommand) Validate() error {
	m.Email = strings.TrimSpace(m.Email)
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.EmailFormat),
	)
}

// PurgeResetTokensCommand removes expired password reset tokens. When DryRun
// is true nothing is deleted.
type PurgeResetTokensCommand struct {
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (PurgeResetTokensCommand) Type() string { return purgeResetTokensMessageType }

// Validate satisfies command.Message.
func (PurgeResetTokensCommand) Validate() error { return nil }
