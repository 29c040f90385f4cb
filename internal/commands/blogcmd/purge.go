package blogcmd

import (
	"context"
	"strings"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultPurgeExpression is the cron schedule for expired token cleanup.
const DefaultPurgeExpression = "@every 15m"

// TokenPurger removes expired reset tokens and reports how many were deleted.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int, error)
}

type purgeHandlerConfig struct {
	cronConfig command.HandlerConfig
	timeout    time.Duration
}

// PurgeHandlerOption customises the purge handler.
type PurgeHandlerOption func(*purgeHandlerConfig)

// PurgeWithCronExpression overrides the cron expression.
func PurgeWithCronExpression(expression string) PurgeHandlerOption {
	return func(cfg *purgeHandlerConfig) {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			cfg.cronConfig.Expression = trimmed
		}
	}
}

// PurgeWithTimeout overrides the execution timeout.
func PurgeWithTimeout(timeout time.Duration) PurgeHandlerOption {
	return func(cfg *purgeHandlerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// PurgeResetTokensHandler deletes expired password reset tokens on a schedule.
type PurgeResetTokensHandler struct {
	purger     TokenPurger
	logger     interfaces.Logger
	cronConfig command.HandlerConfig
	timeout    time.Duration
}

// NewPurgeResetTokensHandler constructs the purge handler.
func NewPurgeResetTokensHandler(purger TokenPurger, logger interfaces.Logger, opts ...PurgeHandlerOption) *PurgeResetTokensHandler {
	cfg := purgeHandlerConfig{
		cronConfig: command.HandlerConfig{Expression: DefaultPurgeExpression},
		timeout:    commands.DefaultCommandTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &PurgeResetTokensHandler{
		purger:     purger,
		logger:     commands.EnsureLogger(logger),
		cronConfig: cfg.cronConfig,
		timeout:    cfg.timeout,
	}
}

// Execute satisfies command.Commander[PurgeResetTokensCommand].
func (h *PurgeResetTokensHandler) Execute(ctx context.Context, msg PurgeResetTokensCommand) error {
	if err := commands.WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = commands.EnsureContext(ctx)
	ctx, cancel := commands.WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return commands.WrapContextError(err)
	}

	logger := logging.WithFields(h.logger, map[string]any{
		"operation": "users.password_reset.purge",
	})
	if msg.DryRun {
		logger.Debug("users.command.purge.dry_run")
		return nil
	}

	removed, err := h.purger.PurgeExpiredTokens(ctx)
	if err != nil {
		return commands.WrapExecuteError(err)
	}
	logging.WithFields(logger, map[string]any{
		"removed": removed,
	}).Debug("users.command.purge.removed")
	return nil
}

// CronHandler satisfies command.CronCommand.
func (h *PurgeResetTokensHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), PurgeResetTokensCommand{})
	}
}

// CronOptions satisfies command.CronCommand.
func (h *PurgeResetTokensHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

// CLIHandler exposes the purge handler to CLI integrations.
func (h *PurgeResetTokensHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for token purging.
func (h *PurgeResetTokensHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"users", "purge-reset-tokens"},
		Group:       "users",
		Description: "Delete expired password reset tokens",
	}
}
