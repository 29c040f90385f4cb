package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/comments"
	"github.com/goliatone/go-blog/internal/pages"
	"github.com/goliatone/go-blog/internal/permissions"
	"github.com/goliatone/go-blog/internal/users"
	"github.com/goliatone/go-blog/internal/validation"
)

type errorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	if fields, ok := validation.AsFieldErrors(err); ok {
		return http.StatusBadRequest, errorResponse{
			Error:   "validation_failed",
			Message: "Invalid input",
			Fields:  fields,
		}
	}

	if errors.Is(err, blog.ErrPostNotFound) ||
		errors.Is(err, blog.ErrSeriesNotFound) ||
		errors.Is(err, blog.ErrMediaNotFound) ||
		errors.Is(err, users.ErrUserNotFound) ||
		errors.Is(err, users.ErrResetTokenNotFound) ||
		errors.Is(err, comments.ErrCommentNotFound) ||
		errors.Is(err, pages.ErrPageNotFound) {
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: rootMessage(err)}
	}

	if errors.Is(err, auth.ErrNotAuthenticated) {
		return http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: auth.MsgNotAuthenticated}
	}
	if errors.Is(err, auth.ErrNotValidated) {
		return http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: auth.MsgNotValidated}
	}

	if errors.Is(err, permissions.ErrPermissionDenied) {
		return http.StatusForbidden, errorResponse{Error: "forbidden", Message: permissionMessage(err)}
	}

	if errors.Is(err, users.ErrUserExists) ||
		errors.Is(err, users.ErrDuplicateRecord) ||
		errors.Is(err, blog.ErrDuplicateRecord) {
		return http.StatusConflict, errorResponse{Error: "conflict", Message: rootMessage(err)}
	}

	if errors.Is(err, users.ErrResetTokenExpired) ||
		errors.Is(err, comments.ErrCommentsDisabled) ||
		errors.Is(err, blog.ErrMissingRelation) ||
		errors.Is(err, blog.ErrTitleRequired) {
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: rootMessage(err)}
	}

	if goerrors.IsCategory(err, goerrors.CategoryValidation) {
		return http.StatusBadRequest, errorResponse{Error: "validation_failed", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: "Internal server error",
	}
}

// rootMessage returns the domain error message beneath any wrapping added
// by the command layer.
func rootMessage(err error) string {
	var (
		exists     *users.AlreadyExistsError
		constraint *users.ConstraintError
		userMiss   *users.NotFoundError
		postMiss   *blog.NotFoundError
		comment    *comments.NotFoundError
	)
	switch {
	case errors.As(err, &exists):
		return exists.Error()
	case errors.As(err, &constraint):
		return constraint.Error()
	case errors.As(err, &userMiss):
		return userMiss.Error()
	case errors.As(err, &postMiss):
		return postMiss.Error()
	case errors.As(err, &comment):
		return comment.Error()
	}
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(err) {
		err = next
	}
	return err.Error()
}

func permissionMessage(err error) string {
	var denied permissions.Error
	if errors.As(err, &denied) {
		return denied.Error()
	}
	return users.MsgPermissionDenied
}

func parseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, errors.New("uuid required")
	}
	return uuid.Parse(trimmed)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := parseUUID(r.PathValue(name))
	if err != nil {
		badRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntQuery(value string, defaultValue int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func requireUser(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	actor := auth.PrincipalFromContext(r.Context())
	if !actor.IsAuthenticated() {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: auth.MsgNotValidated})
		return actor, false
	}
	return actor, true
}
