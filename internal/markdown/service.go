package markdown

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Renderer converts Markdown into site HTML.
type Renderer interface {
	Render(ctx context.Context, source string, opts Options) (Rendered, error)
	RenderComment(ctx context.Context, source string) (string, error)
}

// Options tune a single Render call.
type Options struct {
	// UpdateHeaders prefixes non-alphabetic heading ids and adds the
	// scroll-spy attribute used by the table of contents.
	UpdateHeaders bool
}

// Rendered holds the HTML body and its table of contents.
type Rendered struct {
	HTML string
	TOC  string
}

// Config wires the rendering pipeline.
type Config struct {
	Engine   EngineConfig
	TOCDepth int
}

// Service is the goldmark backed Renderer.
type Service struct {
	engine   goldmark.Markdown
	tocDepth int
	oembed   *OEmbedResolver
	logger   interfaces.Logger
}

var _ Renderer = (*Service)(nil)

// Option customises a Service.
type Option func(*Service)

// WithOEmbed enables media URL expansion through resolver.
func WithOEmbed(resolver *OEmbedResolver) Option {
	return func(s *Service) {
		s.oembed = resolver
	}
}

// WithLogger sets the logger used for pipeline diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService builds a renderer. oEmbed expansion is off unless WithOEmbed is
// supplied.
func NewService(cfg Config, opts ...Option) *Service {
	depth := cfg.TOCDepth
	if depth <= 0 {
		depth = 3
	}
	s := &Service{
		engine:   newEngine(cfg.Engine),
		tocDepth: depth,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Render converts source to HTML, applies the DOM fixups, expands oEmbed
// links and builds the table of contents.
func (s *Service) Render(ctx context.Context, source string, opts Options) (Rendered, error) {
	return s.render(ctx, source, opts, true)
}

func (s *Service) render(ctx context.Context, source string, opts Options, embed bool) (Rendered, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	raw, err := convert(s.engine, source)
	if err != nil {
		s.logger.Error("markdown.render.failed", "error", err)
		return Rendered{}, err
	}

	doc, err := parseFragment(raw)
	if err != nil {
		return Rendered{}, err
	}

	decorate(doc, opts.UpdateHeaders)
	if embed {
		s.oembed.expand(ctx, doc)
	}

	body, err := renderFragment(doc)
	if err != nil {
		return Rendered{}, err
	}

	return Rendered{
		HTML: body,
		TOC:  buildTOC(doc, s.tocDepth),
	}, nil
}

// RenderComment renders comment Markdown with raw HTML escaped, headings
// demoted below the post outline and the result sanitized. Media links stay
// plain links since the comment allowlist has no embeds.
func (s *Service) RenderComment(ctx context.Context, source string) (string, error) {
	cleaned := CleanWithExceptions(source)
	rendered, err := s.render(ctx, cleaned, Options{UpdateHeaders: false}, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(SanitizeComment(ShiftHeadings(rendered.HTML))), nil
}
