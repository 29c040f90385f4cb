package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/commands/blogcmd"
	"github.com/goliatone/go-blog/internal/comments"
	bloghttp "github.com/goliatone/go-blog/internal/http"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/pages"
	"github.com/goliatone/go-blog/internal/permissions"
	"github.com/goliatone/go-blog/internal/routes"
	"github.com/goliatone/go-blog/internal/users"
)

const adminPassword = "admin-password"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	renderer := markdown.NewService(markdown.Config{})

	posts := blog.NewMemoryPostRepository()
	blogSvc := blog.NewService(posts, blog.NewMemorySeriesRepository(), blog.NewMemoryMediaRepository(), renderer)
	commentSvc, err := comments.NewService(comments.NewMemoryCommentRepository(), posts, renderer)
	if err != nil {
		t.Fatalf("comment service: %v", err)
	}

	userRepo := users.NewMemoryUserRepository()
	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := userRepo.Create(ctx, &users.User{
		ID:           uuid.New(),
		Username:     "admin",
		FullName:     "Site Admin",
		Email:        "admin@example.com",
		Timezone:     users.DefaultTimezone,
		IsActive:     true,
		PasswordHash: hash,
		Role:         permissions.RoleAdmin,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	userSvc, err := users.NewService(userRepo, users.NewMemoryResetTokenRepository(), "reset-secret")
	if err != nil {
		t.Fatalf("user service: %v", err)
	}

	pageSvc, err := pages.NewService(ctx, renderer, pages.WithSource(fstest.MapFS{
		"pages/about.md": {Data: []byte("---\ntitle: About\nkind: page\n---\n# About\n\nHello.\n")},
	}, "pages"))
	if err != nil {
		t.Fatalf("pages: %v", err)
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: "jwt-secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	builder, err := routes.New(routes.DefaultConfig("https://blog.example.com"), routes.DefaultGroup)
	if err != nil {
		t.Fatalf("routes: %v", err)
	}

	set, registry := blogcmd.Build(blogcmd.Services{Blog: blogSvc, Comments: commentSvc, Users: userSvc}, nil, blogcmd.Config{})
	t.Cleanup(registry.Close)

	api := bloghttp.NewAPI(
		bloghttp.WithBlogService(blogSvc),
		bloghttp.WithCommentService(commentSvc),
		bloghttp.WithUserService(userSvc),
		bloghttp.WithPages(pageSvc),
		bloghttp.WithAuth(auth.NewAuthenticator(users.NewAccountLookup(userRepo), nil), tokens),
		bloghttp.WithCommands(set),
		bloghttp.WithRoutes(builder),
	)
	handler, err := api.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t     *testing.T
	base  string
	http  *http.Client
	token string
	guest string
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	return &client{
		t:    t,
		base: srv.URL,
		http: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}},
	}
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *client) send(req *http.Request) (*http.Response, []byte) {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.guest != "" {
		req.AddCookie(&http.Cookie{Name: "guest_id", Value: c.guest})
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "guest_id" && c.guest == "" {
			c.guest = cookie.Value
		}
	}
	return resp, data
}

func (c *client) login(username, password string) {
	c.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req, _ := http.NewRequest(http.MethodPost, c.base+"/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, body := c.send(req)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login status %d: %s", resp.StatusCode, body)
	}
	var token auth.Token
	decode(c.t, body, &token)
	c.token = token.AccessToken
}

func decode(t *testing.T, body []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status %d, want %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func createPost(t *testing.T, admin *client, title string) blog.Post {
	t.Helper()
	resp, body := admin.do(http.MethodPost, "/blog/posts", blog.SavePostRequest{
		Title:           title,
		MarkdownContent: "## Intro\n\nSome words here.",
		Tags:            []string{"go"},
		IsPublished:     true,
		CanComment:      true,
	})
	expectStatus(t, resp, body, http.StatusCreated)
	var post blog.Post
	decode(t, body, &post)
	return post
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, body := c.send(req)
	expectStatus(t, resp, body, http.StatusUnauthorized)
}

func TestPostLifecycle(t *testing.T) {
	srv := newServer(t)
	admin := newClient(t, srv)
	admin.login("admin", adminPassword)
	guest := newClient(t, srv)

	resp, body := guest.do(http.MethodPost, "/blog/posts", blog.SavePostRequest{Title: "Nope", MarkdownContent: "x"})
	expectStatus(t, resp, body, http.StatusForbidden)

	post := createPost(t, admin, "First Post")
	if post.Slug != "first-post" {
		t.Fatalf("unexpected slug %q", post.Slug)
	}

	resp, body = guest.do(http.MethodGet, "/blog/posts/first-post", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var fetched struct {
		blog.Post
		URL string `json:"url"`
	}
	decode(t, body, &fetched)
	if fetched.Views != 1 {
		t.Fatalf("expected view to be counted, got %d", fetched.Views)
	}
	if fetched.URL != "https://blog.example.com/blog/first-post" {
		t.Fatalf("unexpected canonical url %q", fetched.URL)
	}

	resp, body = admin.do(http.MethodPut, "/blog/posts/"+post.ID.String(), blog.SavePostRequest{
		Title:           "Renamed Post",
		MarkdownContent: "## Intro\n\nSome words here.",
		Tags:            []string{"go"},
		IsPublished:     true,
		CanComment:      true,
	})
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = guest.do(http.MethodGet, "/blog/posts/first-post", nil)
	expectStatus(t, resp, body, http.StatusMovedPermanently)
	if loc := resp.Header.Get("Location"); loc != "/blog/posts/renamed-post" {
		t.Fatalf("unexpected redirect %q", loc)
	}

	resp, body = guest.do(http.MethodGet, "/blog/posts?tags=go", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var page blog.Page
	decode(t, body, &page)
	if page.TotalResults != 1 {
		t.Fatalf("expected one tagged post, got %d", page.TotalResults)
	}

	resp, body = guest.do(http.MethodGet, "/blog/posts/missing", nil)
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestPostLikes(t *testing.T) {
	srv := newServer(t)
	admin := newClient(t, srv)
	admin.login("admin", adminPassword)
	post := createPost(t, admin, "Likeable")
	guest := newClient(t, srv)

	resp, body := guest.do(http.MethodPost, "/blog/posts/"+post.ID.String()+"/like", map[string]bool{"like": true})
	expectStatus(t, resp, body, http.StatusOK)
	var liked blog.Post
	decode(t, body, &liked)
	if liked.Likes != 1 {
		t.Fatalf("expected 1 like, got %d", liked.Likes)
	}

	for range 2 {
		resp, body = guest.do(http.MethodPost, "/blog/posts/"+post.ID.String()+"/like", map[string]bool{"like": false})
		expectStatus(t, resp, body, http.StatusOK)
	}
	decode(t, body, &liked)
	if liked.Likes != 0 {
		t.Fatalf("likes must not go below zero, got %d", liked.Likes)
	}
}

func TestGuestCommentOwnership(t *testing.T) {
	srv := newServer(t)
	admin := newClient(t, srv)
	admin.login("admin", adminPassword)
	post := createPost(t, admin, "Discussed")

	author := newClient(t, srv)
	author.do(http.MethodGet, "/pages", nil)
	if author.guest == "" {
		t.Fatal("expected a guest cookie to be issued")
	}

	resp, body := author.do(http.MethodPost, "/blog/posts/"+post.ID.String()+"/comments", map[string]string{
		"content": "Nice **post**",
		"name":    "Visitor",
	})
	expectStatus(t, resp, body, http.StatusCreated)
	var view comments.View
	decode(t, body, &view)
	if !view.CanEdit || !view.CanDelete {
		t.Fatalf("author should own the comment: %+v", view)
	}

	other := newClient(t, srv)
	other.guest = "someone-else"
	resp, body = other.do(http.MethodDelete, "/blog/comments/"+view.ID.String(), nil)
	expectStatus(t, resp, body, http.StatusForbidden)

	resp, body = author.do(http.MethodPut, "/blog/comments/"+view.ID.String(), map[string]string{"content": "Edited"})
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = author.do(http.MethodDelete, "/blog/comments/"+view.ID.String(), nil)
	expectStatus(t, resp, body, http.StatusNoContent)

	resp, body = author.do(http.MethodGet, "/blog/posts/"+post.ID.String()+"/comments", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var remaining []comments.View
	decode(t, body, &remaining)
	if len(remaining) != 0 {
		t.Fatalf("expected no comments, got %d", len(remaining))
	}
}

func TestRegistrationAndPasswordReset(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)

	register := users.RegisterRequest{
		Username: "reader",
		FullName: "Reader",
		Email:    "reader@example.com",
		Password: "first-password",
	}
	resp, body := c.do(http.MethodPost, "/register", register)
	expectStatus(t, resp, body, http.StatusCreated)
	if strings.Contains(string(body), "password") {
		t.Fatalf("password hash must not be serialised: %s", body)
	}

	resp, body = c.do(http.MethodPost, "/register", register)
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = c.do(http.MethodPost, "/request-password-reset", map[string]string{"email": "nobody@example.com"})
	expectStatus(t, resp, body, http.StatusAccepted)

	resp, body = c.do(http.MethodGet, "/reset-password/not-a-token", nil)
	expectStatus(t, resp, body, http.StatusNotFound)

	c.login("reader", "first-password")
	resp, body = c.do(http.MethodGet, "/users/current-user", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var me users.User
	decode(t, body, &me)
	if me.Username != "reader" || me.Role != permissions.RoleUser {
		t.Fatalf("unexpected current user %+v", me)
	}

	resp, body = c.do(http.MethodPatch, "/users/"+me.ID.String(), map[string]string{"role": "admin"})
	expectStatus(t, resp, body, http.StatusForbidden)
}

func TestTokensFollowStoredAccount(t *testing.T) {
	srv := newServer(t)
	admin := newClient(t, srv)
	admin.login("admin", adminPassword)

	reader := newClient(t, srv)
	resp, body := reader.do(http.MethodPost, "/register", users.RegisterRequest{
		Username: "editor",
		FullName: "Editor",
		Email:    "editor@example.com",
		Password: "editor-password",
	})
	expectStatus(t, resp, body, http.StatusCreated)
	var account users.User
	decode(t, body, &account)

	resp, body = admin.do(http.MethodPatch, "/users/"+account.ID.String(), map[string]string{"role": "admin"})
	expectStatus(t, resp, body, http.StatusOK)
	reader.login("editor", "editor-password")
	createPost(t, reader, "While Promoted")

	resp, body = admin.do(http.MethodPatch, "/users/"+account.ID.String(), map[string]string{"role": "user"})
	expectStatus(t, resp, body, http.StatusOK)
	resp, body = reader.do(http.MethodPost, "/blog/posts", blog.SavePostRequest{Title: "After Demotion", MarkdownContent: "body"})
	expectStatus(t, resp, body, http.StatusForbidden)

	resp, body = reader.do(http.MethodGet, "/auth/refresh-token", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var refreshed auth.Token
	decode(t, body, &refreshed)
	reader.token = refreshed.AccessToken
	resp, body = reader.do(http.MethodGet, "/users/current-user", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var me users.User
	decode(t, body, &me)
	if me.Role != permissions.RoleUser {
		t.Fatalf("expected stored role after refresh, got %s", me.Role)
	}

	resp, body = admin.do(http.MethodDelete, "/users/"+account.ID.String(), nil)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete user: status %d: %s", resp.StatusCode, body)
	}
	resp, body = reader.do(http.MethodGet, "/auth/refresh-token", nil)
	expectStatus(t, resp, body, http.StatusUnauthorized)
	resp, body = reader.do(http.MethodGet, "/users/current-user", nil)
	expectStatus(t, resp, body, http.StatusUnauthorized)
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	resp, body := c.do(http.MethodGet, "/users/current-user", nil)
	expectStatus(t, resp, body, http.StatusUnauthorized)

	c.token = "garbage"
	resp, body = c.do(http.MethodGet, "/users", nil)
	expectStatus(t, resp, body, http.StatusUnauthorized)
}

func TestPages(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	resp, body := c.do(http.MethodGet, "/pages/about", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var page pages.Page
	decode(t, body, &page)
	if page.Title != "About" {
		t.Fatalf("unexpected page %+v", page)
	}

	resp, body = c.do(http.MethodGet, "/pages/nowhere", nil)
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestOpenAPIDocumentListsRoutes(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	resp, body := c.do(http.MethodGet, "/openapi.json", nil)
	expectStatus(t, resp, body, http.StatusOK)

	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	decode(t, body, &doc)
	if doc.OpenAPI == "" {
		t.Fatalf("expected openapi version")
	}
	for path, method := range map[string]string{
		"/blog/posts":           "post",
		"/blog/posts/{id}/like": "post",
		"/auth/token":           "post",
		"/pages/{slug}":         "get",
	} {
		if _, ok := doc.Paths[path][method]; !ok {
			t.Fatalf("expected %s %s in document", method, path)
		}
	}
}
