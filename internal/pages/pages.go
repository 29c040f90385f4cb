// Package pages serves the static informational pages (about, projects and
// the individual project write ups). Pages are Markdown files with front
// matter, rendered once when the service is built.
package pages

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

//go:embed content/*.md
var embedded embed.FS

// Kinds of page.
const (
	KindPage    = "page"
	KindProject = "project"
)

var (
	ErrPageNotFound  = errors.New("pages: page not found")
	ErrDuplicateSlug = errors.New("pages: duplicate page slug")
)

// Page is a rendered static page.
type Page struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Order       int       `json:"order"`
	HTML        string    `json:"html"`
	TOC         string    `json:"toc,omitempty"`
}

// Option customises a Service.
type Option func(*Service)

// WithSource replaces the embedded pages with the Markdown files in fsys.
func WithSource(fsys fs.FS, dir string) Option {
	return func(s *Service) {
		s.source = fsys
		s.dir = dir
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		s.logger = logging.Ensure(logger)
	}
}

// Service holds the rendered pages.
type Service struct {
	source fs.FS
	dir    string
	logger interfaces.Logger

	mu     sync.RWMutex
	bySlug map[string]*Page
	order  []*Page
}

// NewService loads and renders every page.
func NewService(ctx context.Context, renderer markdown.Renderer, opts ...Option) (*Service, error) {
	s := &Service{
		source: embedded,
		dir:    "content",
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.load(ctx, renderer); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) load(ctx context.Context, renderer markdown.Renderer) error {
	entries, err := fs.ReadDir(s.source, s.dir)
	if err != nil {
		return fmt.Errorf("pages: read %s: %w", s.dir, err)
	}

	bySlug := make(map[string]*Page, len(entries))
	ordered := make([]*Page, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".md" {
			continue
		}
		page, err := s.render(ctx, renderer, entry.Name())
		if err != nil {
			return err
		}
		if _, exists := bySlug[page.Slug]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateSlug, page.Slug)
		}
		bySlug[page.Slug] = page
		ordered = append(ordered, page)
	}
	slices.SortFunc(ordered, func(a, b *Page) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.Slug, b.Slug)
	})

	s.mu.Lock()
	s.bySlug = bySlug
	s.order = ordered
	s.mu.Unlock()

	s.logger.Info("pages.loaded", "count", len(ordered))
	return nil
}

func (s *Service) render(ctx context.Context, renderer markdown.Renderer, name string) (*Page, error) {
	raw, err := fs.ReadFile(s.source, path.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("pages: read %s: %w", name, err)
	}
	meta, body, err := markdown.ParseFrontMatter(raw)
	if err != nil {
		return nil, fmt.Errorf("pages: %s: %w", name, err)
	}

	slug := meta.Slug
	if slug == "" {
		slug = strings.TrimSuffix(name, ".md")
	}
	kind, _ := meta.Custom["kind"].(string)
	if kind == "" {
		kind = KindPage
	}
	title := meta.Title
	if title == "" {
		title = slug
	}

	rendered, err := renderer.Render(ctx, string(body), markdown.Options{UpdateHeaders: true})
	if err != nil {
		return nil, fmt.Errorf("pages: render %s: %w", name, err)
	}
	return &Page{
		ID:          identity.PageUUID(slug),
		Slug:        slug,
		Title:       title,
		Kind:        kind,
		Description: meta.Description,
		Tags:        meta.Tags(),
		Order:       meta.Order,
		HTML:        rendered.HTML,
		TOC:         rendered.TOC,
	}, nil
}

// Get returns the page with slug.
func (s *Service) Get(slug string) (*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.bySlug[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, slug)
	}
	cloned := *page
	return &cloned, nil
}

// List returns every page ordered by its order field. A non-empty kind
// filters the result.
func (s *Service) List(kind string) []*Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Page, 0, len(s.order))
	for _, page := range s.order {
		if kind != "" && page.Kind != kind {
			continue
		}
		cloned := *page
		out = append(out, &cloned)
	}
	return out
}
