package di

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/commands/blogcmd"
	"github.com/goliatone/go-blog/internal/comments"
	bloghttp "github.com/goliatone/go-blog/internal/http"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/console"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/migrations"
	"github.com/goliatone/go-blog/internal/pages"
	"github.com/goliatone/go-blog/internal/routes"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/users"
	"github.com/goliatone/go-blog/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

// Container wires repositories, services, command handlers and the HTTP
// API from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB   *bun.DB
	ownsDB  bool
	migrate bool

	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	oembedClient *http.Client
	pagesFS      fs.FS
	pagesDir     string

	postRepo    blog.PostRepository
	seriesRepo  blog.SeriesRepository
	mediaRepo   blog.MediaRepository
	userRepo    users.UserRepository
	tokenRepo   users.ResetTokenRepository
	commentRepo comments.CommentRepository

	renderer *markdown.Service
	routes   *routes.Builder
	pageSvc  *pages.Service

	blogSvc    blog.Service
	userSvc    users.Service
	commentSvc comments.Service

	authenticator *auth.Authenticator
	tokens        *auth.TokenIssuer

	commands  *blogcmd.Set
	registry  *blogcmd.Registry
	scheduler *blogcmd.Scheduler
	api       *bloghttp.API
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithLoggerProvider overrides the provider derived from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies an already opened database. The container does not
// close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
		c.ownsDB = false
	}
}

// WithCache overrides the repository cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithMigrations forces schema migrations on the configured database.
func WithMigrations(enabled bool) Option {
	return func(c *Container) {
		c.migrate = enabled
	}
}

// WithOEmbedClient sets the HTTP client used for oEmbed lookups.
func WithOEmbedClient(client *http.Client) Option {
	return func(c *Container) {
		c.oembedClient = client
	}
}

// WithPagesSource replaces the embedded static pages.
func WithPagesSource(fsys fs.FS, dir string) Option {
	return func(c *Container) {
		c.pagesFS = fsys
		c.pagesDir = dir
	}
}

// WithUserRepository overrides the user store, mostly for tests.
func WithUserRepository(repo users.UserRepository) Option {
	return func(c *Container) {
		c.userRepo = repo
	}
}

// NewContainer validates cfg and builds every dependency.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{
		Config:  cfg,
		migrate: cfg.Database.Migrate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func(context.Context) error{
		c.configureLoggerProvider,
		c.configureDatabase,
		c.configureCacheDefaults,
		c.configureRepositories,
		c.configureRenderer,
		c.configureRoutes,
		c.configureServices,
		c.configurePages,
		c.configureAuth,
		c.configureCommands,
		c.configureAPI,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	c.logger.Info("container.ready",
		"database", c.Config.DatabaseDriver(),
		"cache", c.cacheService != nil,
		"dispatch", c.Config.Commands.Dispatch,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider(context.Context) error {
	if c.loggerProvider == nil {
		provider, err := NewLoggerProvider(c.Config.Logging)
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "blog.di")
	return nil
}

// NewLoggerProvider builds the provider named by cfg.Provider, falling back
// to the console logger.
func NewLoggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, fmt.Errorf("di: configure logger: %w", err)
		}
		return provider, nil
	default:
		level := console.ParseLevel(cfg.Level)
		return console.NewProvider(console.Options{MinLevel: &level}), nil
	}
}

func (c *Container) configureDatabase(ctx context.Context) error {
	if c.bunDB == nil {
		db, err := OpenDatabase(ctx, c.Config.Database)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = db != nil
	}
	if c.bunDB == nil || !c.migrate {
		return nil
	}
	_, err := migrations.Up(ctx, c.bunDB,
		migrations.WithLogger(logging.ModuleLogger(c.loggerProvider, "blog.migrations")))
	return err
}

func (c *Container) configureCacheDefaults(context.Context) error {
	if !c.Config.Cache.Enabled || c.bunDB == nil {
		return nil
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if ttl := c.Config.Cache.TTL.Std(); ttl > 0 {
			cfg.TTL = ttl
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("di: configure cache: %w", err)
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureRepositories(context.Context) error {
	if c.bunDB == nil {
		c.postRepo = blog.NewMemoryPostRepository()
		c.seriesRepo = blog.NewMemorySeriesRepository()
		c.mediaRepo = blog.NewMemoryMediaRepository()
		if c.userRepo == nil {
			c.userRepo = users.NewMemoryUserRepository()
		}
		c.tokenRepo = users.NewMemoryResetTokenRepository()
		c.commentRepo = comments.NewMemoryCommentRepository()
		return nil
	}

	c.postRepo = blog.NewBunPostRepository(c.bunDB)
	c.mediaRepo = blog.NewBunMediaRepository(c.bunDB)
	c.tokenRepo = users.NewBunResetTokenRepository(c.bunDB)
	c.commentRepo = comments.NewBunCommentRepository(c.bunDB)
	if c.cacheService != nil {
		c.seriesRepo = blog.NewBunSeriesRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		if c.userRepo == nil {
			c.userRepo = users.NewBunUserRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		}
		return nil
	}
	c.seriesRepo = blog.NewBunSeriesRepository(c.bunDB)
	if c.userRepo == nil {
		c.userRepo = users.NewBunUserRepository(c.bunDB)
	}
	return nil
}

func (c *Container) configureRenderer(context.Context) error {
	mdCfg := c.Config.Markdown
	logger := logging.MarkdownLogger(c.loggerProvider)
	opts := []markdown.Option{markdown.WithLogger(logger)}

	if mdCfg.OEmbed.Enabled {
		resolver, err := markdown.NewOEmbedResolver(markdown.OEmbedConfig{
			MaxWidth:   mdCfg.OEmbed.MaxWidth,
			Timeout:    mdCfg.OEmbed.Timeout.Std(),
			CacheTTL:   mdCfg.OEmbed.CacheTTL.Std(),
			CacheSize:  mdCfg.OEmbed.CacheSize,
			HTTPClient: c.oembedClient,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("di: configure oembed: %w", err)
		}
		opts = append(opts, markdown.WithOEmbed(resolver))
	}

	extensions := mdCfg.Extensions
	if len(extensions) == 0 {
		extensions = markdown.DefaultExtensions
	}
	c.renderer = markdown.NewService(markdown.Config{
		Engine: markdown.EngineConfig{
			Extensions:     extensions,
			HighlightStyle: mdCfg.HighlightStyle,
		},
		TOCDepth: mdCfg.TOCDepth,
	}, opts...)
	return nil
}

func (c *Container) configureRoutes(context.Context) error {
	routeCfg := c.Config.Routes.RouteConfig
	if routeCfg == nil {
		routeCfg = routes.DefaultConfig(c.Config.Routes.BaseURL)
	}
	builder, err := routes.New(routeCfg, c.Config.Routes.Group)
	if err != nil {
		return fmt.Errorf("di: configure routes: %w", err)
	}
	c.routes = builder
	return nil
}

func (c *Container) configureServices(context.Context) error {
	c.blogSvc = blog.NewService(c.postRepo, c.seriesRepo, c.mediaRepo, c.renderer,
		blog.WithLogger(logging.PostsLogger(c.loggerProvider)),
		blog.WithPageSize(c.Config.Blog.ResultsPerPage, c.Config.Blog.MaxPerPage),
	)

	userSvc, err := users.NewService(c.userRepo, c.tokenRepo, c.Config.Auth.ResetSecret,
		users.WithLogger(logging.UsersLogger(c.loggerProvider)),
		users.WithResetTokenTTL(c.Config.Auth.ResetTokenTTL.Std()),
		users.WithResetURL(c.routes.ResetURLFunc()),
	)
	if err != nil {
		return fmt.Errorf("di: configure users: %w", err)
	}
	c.userSvc = userSvc

	commentSvc, err := comments.NewService(c.commentRepo, c.postRepo, c.renderer,
		comments.WithLogger(logging.CommentsLogger(c.loggerProvider)),
	)
	if err != nil {
		return fmt.Errorf("di: configure comments: %w", err)
	}
	c.commentSvc = commentSvc
	return nil
}

func (c *Container) configurePages(ctx context.Context) error {
	opts := []pages.Option{pages.WithLogger(logging.ModuleLogger(c.loggerProvider, "blog.pages"))}
	switch {
	case c.pagesFS != nil:
		opts = append(opts, pages.WithSource(c.pagesFS, c.pagesDir))
	case strings.TrimSpace(c.Config.Pages.Dir) != "":
		opts = append(opts, pages.WithSource(os.DirFS(c.Config.Pages.Dir), "."))
	}
	svc, err := pages.NewService(ctx, c.renderer, opts...)
	if err != nil {
		return fmt.Errorf("di: configure pages: %w", err)
	}
	c.pageSvc = svc
	return nil
}

func (c *Container) configureAuth(context.Context) error {
	authCfg := c.Config.Auth
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:           authCfg.JWTSecret,
		Algorithm:        authCfg.Algorithm,
		TTL:              authCfg.TokenTTL.Std(),
		RefreshThreshold: authCfg.RefreshThreshold.Std(),
	})
	if err != nil {
		return fmt.Errorf("di: configure tokens: %w", err)
	}
	c.tokens = tokens
	c.authenticator = auth.NewAuthenticator(
		users.NewAccountLookup(c.userRepo),
		logging.ModuleLogger(c.loggerProvider, "blog.auth"),
	)
	return nil
}

func (c *Container) configureCommands(context.Context) error {
	cmdCfg := c.Config.Commands
	c.commands, c.registry = blogcmd.Build(blogcmd.Services{
		Blog:     c.blogSvc,
		Comments: c.commentSvc,
		Users:    c.userSvc,
	}, c.loggerProvider, blogcmd.Config{
		Settings: blogcmd.HandlerSettings{
			Timeout:   cmdCfg.Timeout.Std(),
			Telemetry: cmdCfg.Telemetry,
		},
		PurgeExpression: cmdCfg.PurgeSchedule,
		MaxRetries:      cmdCfg.MaxRetries,
		Dispatch:        cmdCfg.Dispatch,
	})
	c.scheduler = blogcmd.NewScheduler(logging.ModuleLogger(c.loggerProvider, "blog.scheduler"))
	return nil
}

func (c *Container) configureAPI(context.Context) error {
	c.api = bloghttp.NewAPI(
		bloghttp.WithBasePath(c.Config.Server.BasePath),
		bloghttp.WithBlogService(c.blogSvc),
		bloghttp.WithCommentService(c.commentSvc),
		bloghttp.WithUserService(c.userSvc),
		bloghttp.WithPages(c.pageSvc),
		bloghttp.WithAuth(c.authenticator, c.tokens),
		bloghttp.WithCommands(c.commands),
		bloghttp.WithRoutes(c.routes),
		bloghttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
		bloghttp.WithSecureCookies(c.Config.Server.SecureCookies),
	)
	return nil
}

// StartScheduler runs the registered cron jobs until ctx is cancelled. It is
// a no-op when cron is disabled.
func (c *Container) StartScheduler(ctx context.Context) error {
	if !c.Config.Commands.Cron || c.scheduler == nil || c.registry == nil {
		return nil
	}
	return c.scheduler.Start(ctx, c.registry.CronCommands())
}

// Close stops background work and releases the database when the container
// opened it.
func (c *Container) Close() error {
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	if c.registry != nil {
		c.registry.Close()
	}
	if c.bunDB == nil || !c.ownsDB {
		return nil
	}
	if err := c.bunDB.Close(); err != nil {
		return fmt.Errorf("di: close database: %w", err)
	}
	c.bunDB = nil
	return nil
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) BunDB() *bun.DB { return c.bunDB }

func (c *Container) Renderer() *markdown.Service { return c.renderer }

func (c *Container) Routes() *routes.Builder { return c.routes }

func (c *Container) BlogService() blog.Service { return c.blogSvc }

func (c *Container) UserService() users.Service { return c.userSvc }

func (c *Container) CommentService() comments.Service { return c.commentSvc }

func (c *Container) PageService() *pages.Service { return c.pageSvc }

func (c *Container) Tokens() *auth.TokenIssuer { return c.tokens }

func (c *Container) Authenticator() *auth.Authenticator { return c.authenticator }

func (c *Container) Commands() *blogcmd.Set { return c.commands }

func (c *Container) Registry() *blogcmd.Registry { return c.registry }

func (c *Container) API() *bloghttp.API { return c.api }

// Handler returns the HTTP handler for every registered endpoint.
func (c *Container) Handler() (http.Handler, error) {
	return c.api.Handler()
}
