package markdown

import (
	"bytes"
	"fmt"
	"maps"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-blog/internal/transforms"
)

// FrontMatter is the metadata block accepted at the top of static pages and
// imported posts.
type FrontMatter struct {
	Title       string         `yaml:"title"`
	Slug        string         `yaml:"slug"`
	Description string         `yaml:"description"`
	Thumbnail   string         `yaml:"thumbnail"`
	Series      string         `yaml:"series"`
	Order       int            `yaml:"order"`
	Date        time.Time      `yaml:"date"`
	Draft       bool           `yaml:"draft"`
	RawTags     any            `yaml:"tags"`
	Custom      map[string]any `yaml:",inline"`
}

// Tags normalises the tags field, which may be a YAML list or a
// comma-separated string.
func (f FrontMatter) Tags() []string {
	tags, err := transforms.ToList(f.RawTags, true)
	if err != nil {
		return nil
	}
	return tags
}

// IsZero reports whether no recognised metadata was present.
func (f FrontMatter) IsZero() bool {
	return f.Title == "" && f.Slug == "" && f.Description == "" &&
		f.Thumbnail == "" && f.RawTags == nil && len(f.Custom) == 0
}

// ParseFrontMatter extracts metadata and the Markdown body from source. A
// source without a front matter block yields zero metadata and the source
// unchanged.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if meta.Custom != nil {
		meta.Custom = maps.Clone(meta.Custom)
	}
	return meta, body, nil
}
