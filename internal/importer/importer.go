// Package importer loads a directory of Markdown posts into the blog. Files
// may carry YAML front matter or follow the plain layout: a "# Title"
// heading, a "tags: a, b" line, an optional "thumbnail: <url>" line and a
// "## Introduction" section followed by the body.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/permissions"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const DefaultPattern = "*.md"

var ErrNoFiles = errors.New("importer: no markdown files matched")

// Document is a parsed post ready to be saved.
type Document struct {
	Path    string
	ID      uuid.UUID
	Series  string
	Request blog.SavePostRequest
}

// Options tunes discovery and the defaults applied to parsed posts.
type Options struct {
	Pattern    string
	Recursive  bool
	Publish    bool
	CanComment bool
}

// Result lists the paths handled by an import run.
type Result struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Failed  []string `json:"failed"`
	DryRun  bool     `json:"dry_run"`
}

// Parse reads one post. IDs are derived from the slug so reimporting a file
// updates the post it created.
func Parse(name string, source []byte, opts Options) (*Document, error) {
	meta, body, err := markdown.ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	text := strings.ReplaceAll(string(body), "\r\n", "\n")

	doc := &Document{Path: name}
	req := blog.SavePostRequest{
		IsPublished: opts.Publish,
		CanComment:  opts.CanComment,
	}

	if meta.IsZero() {
		if err := parsePlain(text, &req); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	} else {
		parseWithFrontMatter(meta, text, &req)
		if meta.Draft {
			req.IsPublished = false
		}
		doc.Series = strings.TrimSpace(meta.Series)
	}

	if req.Title == "" {
		return nil, fmt.Errorf("%s: %w", name, blog.ErrNoTitle)
	}
	key := strings.TrimSpace(meta.Slug)
	if key == "" {
		key = blog.Slugify(req.Title)
	}
	if key == "" {
		return nil, fmt.Errorf("%s: %w", name, blog.ErrTitleRequired)
	}
	doc.ID = identity.PostUUID(key)
	req.ID = &doc.ID
	doc.Request = req
	return doc, nil
}

func parsePlain(text string, req *blog.SavePostRequest) error {
	title, err := blog.ExtractTitle(text)
	if err != nil {
		return err
	}
	req.Title = strings.TrimSpace(title)

	if tags, err := blog.ExtractTags(text); err == nil {
		req.Tags = cleanTags(tags)
	}
	if thumb := blog.ExtractThumbnail(text); thumb != "" {
		req.ThumbnailLocation = &thumb
	}
	intro, err := blog.ExtractIntroduction(text)
	if err != nil {
		return err
	}
	content, err := blog.ExtractContent(text)
	if err != nil {
		return err
	}
	req.MarkdownDescription = strings.TrimSpace(intro)
	req.MarkdownContent = strings.TrimSpace(content)
	return nil
}

func parseWithFrontMatter(meta markdown.FrontMatter, text string, req *blog.SavePostRequest) {
	req.Title = strings.TrimSpace(meta.Title)
	if req.Title == "" {
		if title, err := blog.ExtractTitle(text); err == nil {
			req.Title = strings.TrimSpace(title)
		}
	}
	req.Tags = cleanTags(meta.Tags())
	if thumb := strings.TrimSpace(meta.Thumbnail); thumb != "" {
		req.ThumbnailLocation = &thumb
	}
	req.MarkdownDescription = strings.TrimSpace(meta.Description)

	body := strings.TrimSpace(text)
	if heading := "# " + req.Title; strings.HasPrefix(body, heading) {
		body = strings.TrimSpace(strings.TrimPrefix(body, heading))
	}
	if req.MarkdownDescription == "" {
		if intro, err := blog.ExtractIntroduction(body); err == nil {
			req.MarkdownDescription = strings.TrimSpace(intro)
			if content, err := blog.ExtractContent(body); err == nil {
				body = strings.TrimSpace(content)
			}
		}
	}
	req.MarkdownContent = body
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Discover parses every file under root matching opts.Pattern.
func Discover(fsys fs.FS, root string, opts Options) ([]*Document, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if root == "" {
		root = "."
	}

	var docs []*Document
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && !opts.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		ok, err := path.Match(pattern, d.Name())
		if err != nil {
			return fmt.Errorf("importer: pattern %q: %w", pattern, err)
		}
		if !ok {
			return nil
		}
		source, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		doc, err := Parse(p, source, opts)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoFiles, root, pattern)
	}
	return docs, nil
}

// Importer saves parsed documents through the blog service.
type Importer struct {
	posts  blog.Service
	logger interfaces.Logger
}

func New(posts blog.Service, logger interfaces.Logger) *Importer {
	return &Importer{posts: posts, logger: logging.Ensure(logger)}
}

// Import saves each document, creating its series when needed. Saving runs
// with the admin role. A failing document is logged and recorded in
// Result.Failed; the remaining documents are still imported.
func (i *Importer) Import(ctx context.Context, docs []*Document, dryRun bool) (Result, error) {
	if i.posts == nil {
		return Result{}, errors.New("importer: blog service is required")
	}
	ctx = permissions.WithRole(ctx, permissions.RoleAdmin)
	result := Result{DryRun: dryRun}

	var errs []error
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		_, err := i.posts.GetPost(ctx, doc.ID)
		exists := err == nil
		if err != nil && !errors.Is(err, blog.ErrPostNotFound) {
			result.Failed = append(result.Failed, doc.Path)
			errs = append(errs, fmt.Errorf("%s: %w", doc.Path, err))
			continue
		}

		if !dryRun {
			if err := i.save(ctx, doc); err != nil {
				i.logger.Warn("importer.post_failed", "path", doc.Path, "error", err)
				result.Failed = append(result.Failed, doc.Path)
				errs = append(errs, fmt.Errorf("%s: %w", doc.Path, err))
				continue
			}
		}
		if exists {
			result.Updated = append(result.Updated, doc.Path)
		} else {
			result.Created = append(result.Created, doc.Path)
		}
	}

	i.logger.Info("importer.completed",
		"created", len(result.Created),
		"updated", len(result.Updated),
		"failed", len(result.Failed),
		"dry_run", dryRun,
	)
	return result, errors.Join(errs...)
}

func (i *Importer) save(ctx context.Context, doc *Document) error {
	req := doc.Request
	if doc.Series != "" {
		seriesID, err := i.ensureSeries(ctx, doc.Series)
		if err != nil {
			return err
		}
		req.SeriesID = &seriesID
	}
	_, err := i.posts.SavePost(ctx, req)
	return err
}

func (i *Importer) ensureSeries(ctx context.Context, name string) (uuid.UUID, error) {
	id := identity.SeriesUUID(name)
	if _, err := i.posts.GetSeries(ctx, id); err == nil {
		return id, nil
	} else if !errors.Is(err, blog.ErrSeriesNotFound) {
		return uuid.Nil, err
	}
	series, err := i.posts.CreateSeries(ctx, blog.SeriesInput{ID: &id, Name: name})
	if err != nil {
		return uuid.Nil, err
	}
	return series.ID, nil
}
