package comments

import (
	"errors"
	"fmt"
)

var (
	ErrCommentNotFound   = errors.New("comments: comment not found")
	ErrCommentsDisabled  = errors.New("comments: post does not accept comments")
	ErrRendererRequired  = errors.New("comments: renderer is required")
	ErrPostLookupMissing = errors.New("comments: post lookup is required")
)

// Messages returned to readers.
const (
	MsgAuthorRequired  = "Must provide either user_id or name"
	MsgDeleteForbidden = "You do not have permission to delete this comment."
	MsgEditForbidden   = "You do not have permission to edit this comment."
)

// NotFoundError is returned when a comment cannot be located.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("comment %q not found", e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrCommentNotFound
}
