// Package blog assembles the personal blog: posts with series, media and
// comments, user accounts with JWT auth and password resets, static pages,
// and the JSON API that serves them.
package blog

import (
	"context"
	"net/http"

	"github.com/goliatone/go-blog/internal/auth"
	posts "github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/commands/blogcmd"
	"github.com/goliatone/go-blog/internal/comments"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/pages"
	"github.com/goliatone/go-blog/internal/users"
)

// PostService exports the post, series and media contract.
type PostService = posts.Service

// CommentService exports the comment contract.
type CommentService = comments.Service

// UserService exports the account and password reset contract.
type UserService = users.Service

// PageService exports the static page catalogue.
type PageService = *pages.Service

// Renderer exports the Markdown renderer.
type Renderer = markdown.Renderer

// Commands exports the command handler set.
type Commands = *blogcmd.Set

// Module represents the top level blog runtime.
type Module struct {
	container *di.Container
}

// New constructs the blog module from cfg and optional DI overrides.
func New(ctx context.Context, cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

func (m *Module) Posts() PostService {
	return m.container.BlogService()
}

func (m *Module) Comments() CommentService {
	return m.container.CommentService()
}

func (m *Module) Users() UserService {
	return m.container.UserService()
}

func (m *Module) Pages() PageService {
	return m.container.PageService()
}

func (m *Module) Renderer() Renderer {
	return m.container.Renderer()
}

func (m *Module) Commands() Commands {
	return m.container.Commands()
}

// Tokens returns the JWT issuer used by the API.
func (m *Module) Tokens() *auth.TokenIssuer {
	return m.container.Tokens()
}

// Handler returns the HTTP API.
func (m *Module) Handler() (http.Handler, error) {
	return m.container.Handler()
}

// Start launches the background jobs. It returns immediately; jobs stop when
// ctx is cancelled or Close is called.
func (m *Module) Start(ctx context.Context) error {
	return m.container.StartScheduler(ctx)
}

// Close stops background jobs and releases owned resources.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
