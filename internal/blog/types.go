package blog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Post is a published or draft article. Markdown fields are the source of
// truth; the HTML fields are rendered copies refreshed when the source
// changes.
type Post struct {
	bun.BaseModel `bun:"table:blog_posts,alias:bp"`

	ID                  uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	Title               string     `bun:"title,notnull,unique" json:"title"`
	Slug                string     `bun:"slug,notnull,unique" json:"slug"`
	ReadMins            int        `bun:"read_mins,notnull,default:0" json:"read_mins"`
	IsPublished         bool       `bun:"is_published,notnull,default:false" json:"is_published"`
	CanComment          bool       `bun:"can_comment,notnull,default:true" json:"can_comment"`
	ThumbnailLocation   *string    `bun:"thumbnail_location" json:"thumbnail_location,omitempty"`
	MarkdownDescription string     `bun:"markdown_description,notnull" json:"markdown_description"`
	MarkdownContent     string     `bun:"markdown_content,notnull" json:"markdown_content"`
	HTMLDescription     string     `bun:"html_description,notnull" json:"html_description"`
	HTMLContent         string     `bun:"html_content,notnull" json:"html_content"`
	HTMLTOC             string     `bun:"html_toc,notnull" json:"html_toc"`
	Likes               int        `bun:"likes,notnull,default:0" json:"likes"`
	Views               int        `bun:"views,notnull,default:0" json:"views"`
	SeriesID            *uuid.UUID `bun:"series_id,type:uuid" json:"series_id,omitempty"`
	SeriesPosition      *int       `bun:"series_position" json:"series_position,omitempty"`
	CreatedAt           time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt           time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Tags     []string `bun:"-" json:"tags"`
	OldSlugs []string `bun:"-" json:"old_slugs,omitempty"`
	Media    []*Media `bun:"-" json:"media,omitempty"`
	Series   *Series  `bun:"-" json:"series,omitempty"`
}

// HasTag reports whether the post carries tag (case-insensitive).
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// PostTag links a post to a lowercase tag.
type PostTag struct {
	bun.BaseModel `bun:"table:blog_post_tags,alias:bpt"`

	PostID uuid.UUID `bun:"post_id,pk,type:uuid" json:"post_id"`
	Tag    string    `bun:"tag,pk" json:"tag"`
}

// OldSlug keeps a retired slug resolvable after a post is retitled.
type OldSlug struct {
	bun.BaseModel `bun:"table:blog_old_slugs,alias:bos"`

	Slug      string    `bun:"slug,pk" json:"slug"`
	PostID    uuid.UUID `bun:"post_id,notnull,type:uuid" json:"post_id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Media is an image or video referenced by a post. Locations holds one or
// more comma-separated file locations for alternate encodings.
type Media struct {
	bun.BaseModel `bun:"table:blog_post_media,alias:bpm"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	PostID    uuid.UUID `bun:"post_id,notnull,type:uuid" json:"post_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Locations string    `bun:"locations,notnull" json:"locations"`
	MediaType string    `bun:"media_type,notnull" json:"media_type"`
	Position  *int      `bun:"position" json:"position,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// LocationList splits Locations into its individual entries.
func (m *Media) LocationList() []string {
	if m == nil || m.Locations == "" {
		return nil
	}
	parts := strings.Split(m.Locations, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Series groups posts that are meant to be read in order.
type Series struct {
	bun.BaseModel `bun:"table:blog_post_series,alias:bps"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Name        string    `bun:"name,notnull,unique" json:"name"`
	Description string    `bun:"description,notnull" json:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Posts []PostSummary `bun:"-" json:"posts"`
}

// PostSummary is the slice of a post shown in series listings.
type PostSummary struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	IsPublished    bool      `json:"is_published"`
	SeriesPosition *int      `json:"series_position,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summarize reduces p to its series listing fields.
func (p *Post) Summarize() PostSummary {
	return PostSummary{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		IsPublished:    p.IsPublished,
		SeriesPosition: p.SeriesPosition,
		CreatedAt:      p.CreatedAt,
	}
}

// SlugLookup is the result of resolving a slug. Redirected is set when the
// slug came from the post's history rather than its current slug.
type SlugLookup struct {
	Post       *Post
	Redirected bool
}
