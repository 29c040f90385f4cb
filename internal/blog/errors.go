package blog

import (
	"errors"
	"fmt"
)

var (
	ErrPostNotFound    = errors.New("blog: post not found")
	ErrSeriesNotFound  = errors.New("blog: series not found")
	ErrMediaNotFound   = errors.New("blog: media not found")
	ErrDuplicateRecord = errors.New("blog: duplicate record")
	ErrMissingRelation = errors.New("blog: referenced record does not exist")
	ErrTitleRequired   = errors.New("blog: title is required")
	ErrNoTitle         = errors.New("blog: no title found in post content")
	ErrNoTags          = errors.New("blog: no tags found in post content")
	ErrNoIntroduction  = errors.New("blog: no introduction found in post content")
	ErrNoContent       = errors.New("blog: no content found in post content")
)

// Messages attached to the fields of a rejected save.
const (
	MsgTitleExists     = "Title already exists"
	MsgSeriesMissing   = "Series does not exist"
	MsgSaveFailed      = "Error saving blog post"
	MsgSeriesNameTaken = "Series name already exists"
	MsgTitleNoSlug     = "Title must contain letters or numbers"
)

// NotFoundError is returned when a blog resource cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Is lets callers match a NotFoundError against the package sentinels.
func (e *NotFoundError) Is(target error) bool {
	switch target {
	case ErrPostNotFound:
		return e.Resource == "post" || e.Resource == "old_slug"
	case ErrSeriesNotFound:
		return e.Resource == "series"
	case ErrMediaNotFound:
		return e.Resource == "media"
	}
	return false
}
