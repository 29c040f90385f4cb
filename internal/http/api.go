package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/commands/blogcmd"
	"github.com/goliatone/go-blog/internal/comments"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/openapi"
	"github.com/goliatone/go-blog/internal/pages"
	"github.com/goliatone/go-blog/internal/routes"
	"github.com/goliatone/go-blog/internal/users"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	accessTokenCookie = "access_token"
	guestCookie       = "guest_id"
)

// API registers the blog endpoints.
type API struct {
	basePath      string
	blog          blog.Service
	comments      comments.Service
	users         users.Service
	pages         *pages.Service
	authenticator *auth.Authenticator
	tokens        *auth.TokenIssuer
	commands      *blogcmd.Set
	routes        *routes.Builder
	logger        interfaces.Logger
	secureCookies bool
}

// Option mutates the API configuration.
type Option func(*API)

// NewAPI constructs an API instance.
func NewAPI(opts ...Option) *API {
	api := &API{logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath mounts every route under path.
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" && trimmed != "/" {
			api.basePath = trimmed
		}
	}
}

// WithBlogService wires posts, series and media.
func WithBlogService(service blog.Service) Option {
	return func(api *API) { api.blog = service }
}

// WithCommentService wires comments.
func WithCommentService(service comments.Service) Option {
	return func(api *API) { api.comments = service }
}

// WithUserService wires accounts and password resets.
func WithUserService(service users.Service) Option {
	return func(api *API) { api.users = service }
}

// WithPages wires the static page catalogue.
func WithPages(service *pages.Service) Option {
	return func(api *API) { api.pages = service }
}

// WithAuth wires credential checks and token issuance.
func WithAuth(authenticator *auth.Authenticator, tokens *auth.TokenIssuer) Option {
	return func(api *API) {
		api.authenticator = authenticator
		api.tokens = tokens
	}
}

// WithCommands wires the command handlers used for counters, comments and
// password resets.
func WithCommands(set *blogcmd.Set) Option {
	return func(api *API) { api.commands = set }
}

// WithRoutes wires the canonical URL builder.
func WithRoutes(builder *routes.Builder) Option {
	return func(api *API) { api.routes = builder }
}

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) { api.logger = logging.Ensure(logger) }
}

// WithSecureCookies marks issued cookies Secure.
func WithSecureCookies(secure bool) Option {
	return func(api *API) { api.secureCookies = secure }
}

func (api *API) validate() error {
	switch {
	case api.blog == nil:
		return fmt.Errorf("http: blog service is required")
	case api.comments == nil:
		return fmt.Errorf("http: comment service is required")
	case api.users == nil:
		return fmt.Errorf("http: user service is required")
	case api.pages == nil:
		return fmt.Errorf("http: page service is required")
	case api.authenticator == nil || api.tokens == nil:
		return fmt.Errorf("http: authenticator and token issuer are required")
	case api.commands == nil:
		return fmt.Errorf("http: command handlers are required")
	}
	return nil
}

// Register attaches the endpoints to mux.
func (api *API) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: api is nil")
	}
	if err := api.validate(); err != nil {
		return err
	}

	base := api.basePath
	rec := &recorder{mux: mux, doc: openapi.NewDocument(apiTitle, apiVersion)}
	api.registerAuthRoutes(rec, base)
	api.registerUserRoutes(rec, base)
	api.registerPostRoutes(rec, base)
	api.registerSeriesRoutes(rec, base)
	api.registerCommentRoutes(rec, base)
	api.registerPageRoutes(rec, base)

	spec, err := rec.doc.JSON()
	if err != nil {
		return fmt.Errorf("http: build openapi document: %w", err)
	}
	mux.HandleFunc("GET "+joinPath(base, "openapi.json"), func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(spec)
	})
	return nil
}

const (
	apiTitle   = "Blog API"
	apiVersion = "1.0.0"
)

// registrar is the subset of http.ServeMux the route groups use.
type registrar interface {
	HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request))
}

// recorder registers routes on mux and describes them in doc.
type recorder struct {
	mux *http.ServeMux
	doc *openapi.Document
}

func (r *recorder) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	r.mux.HandleFunc(pattern, handler)
	r.doc.AddRoute(pattern)
}

// Handler returns a mux with every endpoint registered behind the identity
// and request logging middleware.
func (api *API) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		return nil, err
	}
	return api.logRequests(api.identify(mux)), nil
}
