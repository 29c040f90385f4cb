package blog

import (
	"context"

	"github.com/google/uuid"
)

// Sortable post columns.
const (
	OrderCreatedAt = "created_at"
	OrderUpdatedAt = "updated_at"
	OrderTitle     = "title"
	OrderLikes     = "likes"
	OrderViews     = "views"
	OrderReadMins  = "read_mins"
)

var orderColumns = map[string]struct{}{
	OrderCreatedAt: {},
	OrderUpdatedAt: {},
	OrderTitle:     {},
	OrderLikes:     {},
	OrderViews:     {},
	OrderReadMins:  {},
}

// PostQuery filters and pages a post listing.
type PostQuery struct {
	PublishedOnly bool
	Tags          []string
	Search        string
	OrderBy       string
	Asc           bool
	Limit         int
	Offset        int
}

// PostRepository exposes persistence operations for posts, their tags and
// slug history.
type PostRepository interface {
	Create(ctx context.Context, post *Post) (*Post, error)
	Update(ctx context.Context, post *Post) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	GetByTitle(ctx context.Context, title string) (*Post, error)
	List(ctx context.Context, query PostQuery) ([]*Post, int, error)
	ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]*Post, error)
	// AdjustCounters applies deltas to likes and views atomically. Likes
	// never drop below zero.
	AdjustCounters(ctx context.Context, id uuid.UUID, likes, views int) (*Post, error)
	DetachSeries(ctx context.Context, seriesID uuid.UUID) error
	AddOldSlug(ctx context.Context, slug *OldSlug) error
	ResolveOldSlug(ctx context.Context, slug string) (uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SeriesRepository exposes persistence operations for series.
type SeriesRepository interface {
	Create(ctx context.Context, series *Series) (*Series, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Series, error)
	GetByName(ctx context.Context, name string) (*Series, error)
	List(ctx context.Context, search string) ([]*Series, error)
	Update(ctx context.Context, series *Series) (*Series, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// MediaRepository exposes persistence operations for post media.
type MediaRepository interface {
	Create(ctx context.Context, media *Media) (*Media, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Media, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]*Media, error)
	Update(ctx context.Context, media *Media) (*Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
