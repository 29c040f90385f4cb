package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-blog/internal/commands"
)

// viewCounted stands in for the view counter message; each case uses its
// own type so dispatcher subscriptions never overlap.
type viewCounted struct{ Slug string }

func (viewCounted) Type() string    { return "blog.test.view_counted" }
func (viewCounted) Validate() error { return nil }

type likeToggled struct{ Slug string }

func (likeToggled) Type() string    { return "blog.test.like_toggled" }
func (likeToggled) Validate() error { return nil }

func TestDispatcherRetries(t *testing.T) {
	t.Run("recovers after a transient failure", func(t *testing.T) {
		attempts := 0
		handler := commands.NewHandler(func(context.Context, viewCounted) error {
			attempts++
			if attempts < 2 {
				return errors.New("database is locked")
			}
			return nil
		}, commands.WithTimeout[viewCounted](time.Second))

		sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(1))
		t.Cleanup(sub.Unsubscribe)

		if err := dispatcher.Dispatch(context.Background(), viewCounted{Slug: "hello"}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if attempts != 2 {
			t.Fatalf("expected 2 attempts, got %d", attempts)
		}
	})

	t.Run("surfaces the error once retries run out", func(t *testing.T) {
		attempts := 0
		handler := commands.NewHandler(func(context.Context, likeToggled) error {
			attempts++
			return errors.New("post is gone")
		}, commands.WithTimeout[likeToggled](time.Second))

		sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(2))
		t.Cleanup(sub.Unsubscribe)

		if err := dispatcher.Dispatch(context.Background(), likeToggled{Slug: "hello"}); err == nil {
			t.Fatalf("expected dispatch error")
		}
		if attempts != 3 {
			t.Fatalf("expected 3 attempts, got %d", attempts)
		}
	})
}
