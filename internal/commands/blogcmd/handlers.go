package blogcmd

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/comments"
	"github.com/goliatone/go-blog/internal/users"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// HandlerSettings carries the shared handler configuration.
type HandlerSettings struct {
	Logger    interfaces.Logger
	Timeout   time.Duration
	Telemetry bool
}

func options[T command.Message](settings HandlerSettings, operation string, fields func(T) map[string]any) []commands.HandlerOption[T] {
	logger := commands.EnsureLogger(settings.Logger)
	opts := []commands.HandlerOption[T]{
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
	}
	if settings.Timeout > 0 {
		opts = append(opts, commands.WithTimeout[T](settings.Timeout))
	}
	if fields != nil {
		opts = append(opts, commands.WithMessageFields(fields))
	}
	if settings.Telemetry {
		opts = append(opts, commands.WithTelemetry(commands.DefaultTelemetry[T](logger)))
	}
	return opts
}

func postFields(id uuid.UUID) map[string]any {
	return map[string]any{"post_id": id.String()}
}

// NewTogglePostLikeHandler updates a post's like counter.
func NewTogglePostLikeHandler(svc blog.Service, settings HandlerSettings) *commands.Handler[TogglePostLikeCommand] {
	return commands.NewHandler(func(ctx context.Context, msg TogglePostLikeCommand) error {
		post, err := svc.TogglePostLike(ctx, msg.PostID, msg.Like)
		if err != nil {
			return err
		}
		if msg.Result != nil {
			msg.Result(post)
		}
		return nil
	}, options(settings, "blog.post.like", func(msg TogglePostLikeCommand) map[string]any {
		fields := postFields(msg.PostID)
		fields["like"] = msg.Like
		return fields
	})...)
}

// NewIncrementPostViewsHandler bumps a post's view counter.
func NewIncrementPostViewsHandler(svc blog.Service, settings HandlerSettings) *commands.Handler[IncrementPostViewsCommand] {
	return commands.NewHandler(func(ctx context.Context, msg IncrementPostViewsCommand) error {
		post, err := svc.IncrementPostViews(ctx, msg.PostID)
		if err != nil {
			return err
		}
		if msg.Result != nil {
			msg.Result(post)
		}
		return nil
	}, options(settings, "blog.post.view", func(msg IncrementPostViewsCommand) map[string]any {
		return postFields(msg.PostID)
	})...)
}

// NewCreateCommentHandler stores a rendered comment.
func NewCreateCommentHandler(svc comments.Service, settings HandlerSettings) *commands.Handler[CreateCommentCommand] {
	return commands.NewHandler(func(ctx context.Context, msg CreateCommentCommand) error {
		comment, err := svc.Create(ctx, msg.Request)
		if err != nil {
			return err
		}
		if msg.Result != nil {
			msg.Result(comment)
		}
		return nil
	}, options(settings, "blog.comment.create", func(msg CreateCommentCommand) map[string]any {
		fields := postFields(msg.Request.PostID)
		fields["guest"] = msg.Request.UserID == nil
		return fields
	})...)
}

// NewDeleteCommentHandler removes a comment after the ownership check.
func NewDeleteCommentHandler(svc comments.Service, settings HandlerSettings) *commands.Handler[DeleteCommentCommand] {
	return commands.NewHandler(func(ctx context.Context, msg DeleteCommentCommand) error {
		return svc.Delete(ctx, msg.Actor, msg.CommentID)
	}, options(settings, "blog.comment.delete", func(msg DeleteCommentCommand) map[string]any {
		return map[string]any{"comment_id": msg.CommentID.String()}
	})...)
}

// NewRequestPasswordResetHandler issues a reset token. The reset URL is
// logged since no mail transport is configured.
func NewRequestPasswordResetHandler(svc users.Service, settings HandlerSettings) *commands.Handler[RequestPasswordResetCommand] {
	logger := commands.EnsureLogger(settings.Logger)
	return commands.NewHandler(func(ctx context.Context, msg RequestPasswordResetCommand) error {
		req, err := svc.RequestPasswordReset(ctx, msg.Email)
		if err != nil {
			return err
		}
		if req != nil {
			logger.Info("users.password_reset.issued",
				"user_id", req.UserID.String(),
				"url", req.URL,
				"expires_at", req.ExpiresAt,
			)
		}
		if msg.Result != nil {
			msg.Result(req)
		}
		return nil
	}, options[RequestPasswordResetCommand](settings, "users.password_reset.request", nil)...)
}
