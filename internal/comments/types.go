package comments

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/internal/auth"
)

// Comment is a reader comment on a post. Guests are identified by Name and
// GuestID, signed in readers by UserID.
type Comment struct {
	bun.BaseModel `bun:"table:blog_post_comments,alias:c"`

	ID              uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	PostID          uuid.UUID  `bun:"post_id,notnull,type:uuid" json:"post_id"`
	Name            string     `bun:"name,nullzero" json:"name,omitempty"`
	Email           string     `bun:"email,nullzero" json:"-"`
	GuestID         string     `bun:"guest_id,nullzero" json:"-"`
	UserID          *uuid.UUID `bun:"user_id,type:uuid" json:"user_id,omitempty"`
	MarkdownContent string     `bun:"markdown_content,notnull" json:"markdown_content"`
	HTMLContent     string     `bun:"html_content,notnull" json:"html_content"`
	Likes           int        `bun:"likes,notnull,default:0" json:"likes"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// View is a comment annotated with what the current reader may do with it.
// Email is only filled in for the author and admins.
type View struct {
	*Comment
	Email     string `json:"email,omitempty"`
	CanEdit   bool   `json:"can_edit"`
	CanDelete bool   `json:"can_delete"`
}

// NewView annotates comment for actor.
func NewView(comment *Comment, actor auth.Principal) View {
	view := View{
		Comment:   comment,
		CanEdit:   CanEdit(comment, actor),
		CanDelete: CanDelete(comment, actor),
	}
	if comment != nil && (view.CanEdit || actor.IsAdmin()) {
		view.Email = comment.Email
	}
	return view
}
