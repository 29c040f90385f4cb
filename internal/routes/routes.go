// Package routes builds the canonical public URLs of the site.
package routes

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-urlkit"
	"github.com/google/uuid"
)

// Route names registered in the public group.
const (
	RouteBlog          = "blog"
	RoutePost          = "post"
	RouteSeries        = "series"
	RoutePage          = "page"
	RoutePasswordReset = "password_reset"
)

// DefaultGroup is the route group used when none is configured.
const DefaultGroup = "public"

// DefaultConfig returns the route table rooted at baseURL.
func DefaultConfig(baseURL string) *urlkit.Config {
	return &urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    DefaultGroup,
				BaseURL: strings.TrimSuffix(baseURL, "/"),
				Paths: map[string]string{
					RouteBlog:          "/blog",
					RoutePost:          "/blog/:slug",
					RouteSeries:        "/blog/series/:id",
					RoutePage:          "/pages/:slug",
					RoutePasswordReset: "/reset-password/:query",
				},
			},
		},
	}
}

// Builder resolves named routes through go-urlkit.
type Builder struct {
	group *urlkit.Group
}

// New builds a Builder over cfg using the named group. A nil cfg uses
// DefaultConfig with no base URL.
func New(cfg *urlkit.Config, group string) (b *Builder, err error) {
	if cfg == nil {
		cfg = DefaultConfig("")
	}
	if group == "" {
		group = DefaultGroup
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("routes: route group %q not found", group)
		}
	}()
	manager := urlkit.NewRouteManager(cfg)
	resolved := manager.Group(group)
	if resolved == nil {
		return nil, fmt.Errorf("routes: route group %q not found", group)
	}
	return &Builder{group: resolved}, nil
}

func (b *Builder) build(route string, params map[string]any, query map[string]string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("routes: route %q: %v", route, rec)
		}
	}()
	builder := b.group.Builder(route)
	for key, value := range params {
		builder.WithParam(key, value)
	}
	for key, value := range query {
		builder.WithQuery(key, value)
	}
	return builder.Build()
}

// PostURL is the canonical URL of a post.
func (b *Builder) PostURL(slug string) (string, error) {
	return b.build(RoutePost, map[string]any{"slug": slug}, nil)
}

// BlogListURL is the post listing filtered by tags.
func (b *Builder) BlogListURL(tags []string) (string, error) {
	var query map[string]string
	if len(tags) > 0 {
		query = map[string]string{"tags": strings.Join(tags, ",")}
	}
	return b.build(RouteBlog, nil, query)
}

// SeriesURL is the page of a series.
func (b *Builder) SeriesURL(id uuid.UUID) (string, error) {
	return b.build(RouteSeries, map[string]any{"id": id.String()}, nil)
}

// PageURL is the URL of a static page.
func (b *Builder) PageURL(slug string) (string, error) {
	return b.build(RoutePage, map[string]any{"slug": slug}, nil)
}

// PasswordResetURL is the link sent for a password reset request.
func (b *Builder) PasswordResetURL(query string) (string, error) {
	return b.build(RoutePasswordReset, map[string]any{"query": query}, nil)
}

// ResetURLFunc adapts PasswordResetURL to the plain callback the users
// service expects, falling back to a relative path when building fails.
func (b *Builder) ResetURLFunc() func(string) string {
	return func(query string) string {
		url, err := b.PasswordResetURL(query)
		if err != nil {
			return "/reset-password/" + query
		}
		return url
	}
}
