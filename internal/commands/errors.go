package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

type failure struct {
	category goerrors.Category
	code     string
	message  string
}

var (
	invalidMessage = failure{goerrors.CategoryValidation, "BLOG_COMMAND_INVALID", "command message is invalid"}
	cancelled      = failure{goerrors.CategoryCommand, "BLOG_COMMAND_CANCELLED", "command cancelled"}
	timedOut       = failure{goerrors.CategoryCommand, "BLOG_COMMAND_TIMEOUT", "command timed out"}
	contextFailed  = failure{goerrors.CategoryCommand, "BLOG_COMMAND_CONTEXT", "command context failed"}
	executeFailed  = failure{goerrors.CategoryCommand, "BLOG_COMMAND_FAILED", "command failed"}
)

func (f failure) wrap(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, f.category, f.message).WithTextCode(f.code)
}

// WrapValidationError marks err as a rejected message.
func WrapValidationError(err error) error {
	return invalidMessage.wrap(err)
}

// WrapContextError distinguishes cancellation from deadline expiry.
func WrapContextError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return cancelled.wrap(err)
	case errors.Is(err, context.DeadlineExceeded):
		return timedOut.wrap(err)
	default:
		return contextFailed.wrap(err)
	}
}

// WrapExecuteError marks a failure returned by the handler body. Domain
// errors that already carry a category pass through unchanged.
func WrapExecuteError(err error) error {
	return executeFailed.wrap(err)
}
