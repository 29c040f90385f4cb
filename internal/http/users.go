package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/commands/blogcmd"
	"github.com/goliatone/go-blog/internal/users"
)

type passwordResetRequestPayload struct {
	Email string `json:"email"`
}

type passwordResetPayload struct {
	Password string `json:"password"`
}

type resetTokenResponse struct {
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expires_at"`
}

const msgResetRequested = "If an account exists for that email, a password reset link has been issued."

func (api *API) registerUserRoutes(mux registrar, base string) {
	root := joinPath(base, "users")
	mux.HandleFunc("GET "+root, api.handleUserList)
	mux.HandleFunc("POST "+root, api.handleUserCreate)
	mux.HandleFunc("GET "+root+"/current-user", api.handleCurrentUserGet)
	mux.HandleFunc("PATCH "+root+"/current-user", api.handleCurrentUserUpdate)
	mux.HandleFunc("DELETE "+root+"/current-user", api.handleCurrentUserDelete)
	mux.HandleFunc("GET "+root+"/{id}", api.handleUserGet)
	mux.HandleFunc("PATCH "+root+"/{id}", api.handleUserPatch)
	mux.HandleFunc("DELETE "+root+"/{id}", api.handleUserDelete)

	mux.HandleFunc("POST "+joinPath(base, "register"), api.handleRegister)
	mux.HandleFunc("POST "+joinPath(base, "request-password-reset"), api.handleRequestPasswordReset)
	mux.HandleFunc("GET "+joinPath(base, "reset-password/{query}"), api.handleResetTokenCheck)
	mux.HandleFunc("POST "+joinPath(base, "reset-password/{query}"), api.handleResetPassword)
}

func (api *API) handleUserList(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := api.users.List(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *API) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	var payload users.CreateRequest
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	user, err := api.users.Create(r.Context(), actor, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (api *API) handleCurrentUserGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := api.users.Get(r.Context(), actor, actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (api *API) handleCurrentUserUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	var payload users.SettingsRequest
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	user, err := api.users.UpdateSettings(r.Context(), actor, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (api *API) handleCurrentUserDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	api.deleteUser(w, r, actor, actor.UserID)
}

func (api *API) handleUserGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	user, err := api.users.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (api *API) handleUserPatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload users.PatchRequest
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	user, err := api.users.Patch(r.Context(), actor, id, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (api *API) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	api.deleteUser(w, r, actor, id)
}

func (api *API) deleteUser(w http.ResponseWriter, r *http.Request, actor auth.Principal, id uuid.UUID) {
	if err := api.users.Delete(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload users.RegisterRequest
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	user, err := api.users.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (api *API) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var payload passwordResetRequestPayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	err := api.commands.RequestPasswordReset.Execute(r.Context(), blogcmd.RequestPasswordResetCommand{
		Email: strings.TrimSpace(payload.Email),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, messageResponse{Message: msgResetRequested})
}

func (api *API) handleResetTokenCheck(w http.ResponseWriter, r *http.Request) {
	token, err := api.users.ValidateResetToken(r.Context(), r.PathValue("query"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetTokenResponse{
		Valid:     true,
		ExpiresAt: token.ExpiresAt.UTC(),
	})
}

func (api *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload passwordResetPayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	user, err := api.users.ResetPassword(r.Context(), r.PathValue("query"), payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
