package blogcmd

import (
	"sync"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/comments"
	"github.com/goliatone/go-blog/internal/users"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

type subscription interface {
	Unsubscribe()
}

// Registry tracks dispatcher subscriptions and cron jobs.
type Registry struct {
	mu         sync.Mutex
	subs       []subscription
	cron       []command.CronCommand
	maxRetries int
}

// NewRegistry returns an empty registry. maxRetries applies to every
// subscribed handler.
func NewRegistry(maxRetries int) *Registry {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Registry{maxRetries: maxRetries}
}

// Subscribe registers handler with the global dispatcher.
func Subscribe[T command.Message](r *Registry, handler command.Commander[T]) {
	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(r.maxRetries))
	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
}

// AddCron records a scheduled command.
func (r *Registry) AddCron(cmd command.CronCommand) {
	if cmd == nil {
		return
	}
	r.mu.Lock()
	r.cron = append(r.cron, cmd)
	r.mu.Unlock()
}

// CronCommands returns the recorded scheduled commands.
func (r *Registry) CronCommands() []command.CronCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]command.CronCommand(nil), r.cron...)
}

// Close removes every dispatcher subscription.
func (r *Registry) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Services groups the domain services the blog commands operate on.
type Services struct {
	Blog     blog.Service
	Comments comments.Service
	Users    users.Service
}

// Set holds the constructed blog command handlers.
type Set struct {
	TogglePostLike       *commands.Handler[TogglePostLikeCommand]
	IncrementPostViews   *commands.Handler[IncrementPostViewsCommand]
	ImportPosts          *commands.Handler[ImportPostsCommand]
	CreateComment        *commands.Handler[CreateCommentCommand]
	DeleteComment        *commands.Handler[DeleteCommentCommand]
	RequestPasswordReset *commands.Handler[RequestPasswordResetCommand]
	PurgeResetTokens     *PurgeResetTokensHandler
}

// Config controls handler construction.
type Config struct {
	Settings        HandlerSettings
	PurgeExpression string
	MaxRetries      int
	// Dispatch subscribes the handlers with the process-wide dispatcher.
	Dispatch bool
}

// Build constructs every handler and records the purge job. Handlers are
// subscribed with the dispatcher only when cfg.Dispatch is set.
func Build(services Services, provider interfaces.LoggerProvider, cfg Config) (*Set, *Registry) {
	registry := NewRegistry(cfg.MaxRetries)
	set := &Set{}

	postSettings := cfg.Settings
	postSettings.Logger = pick(cfg.Settings.Logger, provider, "posts")
	commentSettings := cfg.Settings
	commentSettings.Logger = pick(cfg.Settings.Logger, provider, "comments")
	userSettings := cfg.Settings
	userSettings.Logger = pick(cfg.Settings.Logger, provider, "users")

	if services.Blog != nil {
		set.TogglePostLike = NewTogglePostLikeHandler(services.Blog, postSettings)
		set.IncrementPostViews = NewIncrementPostViewsHandler(services.Blog, postSettings)
		set.ImportPosts = NewImportPostsHandler(services.Blog, postSettings)
	}
	if services.Comments != nil {
		set.CreateComment = NewCreateCommentHandler(services.Comments, commentSettings)
		set.DeleteComment = NewDeleteCommentHandler(services.Comments, commentSettings)
	}
	if services.Users != nil {
		set.RequestPasswordReset = NewRequestPasswordResetHandler(services.Users, userSettings)
		set.PurgeResetTokens = NewPurgeResetTokensHandler(services.Users, userSettings.Logger,
			PurgeWithCronExpression(cfg.PurgeExpression),
			PurgeWithTimeout(cfg.Settings.Timeout),
		)
		registry.AddCron(set.PurgeResetTokens)
	}
	if cfg.Dispatch {
		set.subscribe(registry)
	}
	return set, registry
}

func (s *Set) subscribe(registry *Registry) {
	if s.TogglePostLike != nil {
		Subscribe[TogglePostLikeCommand](registry, s.TogglePostLike)
		Subscribe[IncrementPostViewsCommand](registry, s.IncrementPostViews)
		Subscribe[ImportPostsCommand](registry, s.ImportPosts)
	}
	if s.CreateComment != nil {
		Subscribe[CreateCommentCommand](registry, s.CreateComment)
		Subscribe[DeleteCommentCommand](registry, s.DeleteComment)
	}
	if s.RequestPasswordReset != nil {
		Subscribe[RequestPasswordResetCommand](registry, s.RequestPasswordReset)
		Subscribe[PurgeResetTokensCommand](registry, s.PurgeResetTokens)
	}
}

func pick(logger interfaces.Logger, provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if logger != nil {
		return logger
	}
	return commands.CommandLogger(provider, module)
}
