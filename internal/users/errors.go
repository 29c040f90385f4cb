package users

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("users: user not found")
	ErrUserExists         = errors.New("users: user already exists")
	ErrResetTokenNotFound = errors.New("users: password reset token not found")
	ErrResetTokenExpired  = errors.New("users: password reset token expired")
	ErrDuplicateRecord    = errors.New("users: duplicate record")
	ErrTokenSecret        = errors.New("users: reset token secret is required")
)

// Field messages for rejected account forms.
const (
	MsgEmailTaken       = "Email already exists for another account."
	MsgUsernameTaken    = "Username taken."
	MsgRoleForbidden    = "Cannot update role field"
	MsgPermissionDenied = "You do not have permission to perform this action"
)

// NotFoundError is returned when a user or reset token cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	switch target {
	case ErrUserNotFound:
		return e.Resource == "user"
	case ErrResetTokenNotFound:
		return e.Resource == "reset_token"
	}
	return false
}

// AlreadyExistsError reports an account conflict on a single field.
type AlreadyExistsError struct {
	Field string
	Value string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("User with %s '%s' already exists.", e.Field, e.Value)
}

func (e *AlreadyExistsError) Unwrap() error {
	return ErrUserExists
}

// ConstraintError is a unique violation on Field. Field is empty when the
// store did not say which column collided.
type ConstraintError struct {
	Field string
}

func (e *ConstraintError) Error() string {
	if e.Field == "" {
		return ErrDuplicateRecord.Error()
	}
	return fmt.Sprintf("users: duplicate %s", e.Field)
}

func (e *ConstraintError) Unwrap() error {
	return ErrDuplicateRecord
}
