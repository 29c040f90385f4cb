package http

import (
	"net/http"

	"github.com/goliatone/go-blog/internal/auth"
)

func (api *API) registerAuthRoutes(mux registrar, base string) {
	mux.HandleFunc("POST "+joinPath(base, "auth/token"), api.handleLogin)
	mux.HandleFunc("GET "+joinPath(base, "auth/refresh-token"), api.handleRefresh)
}

func (api *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, "invalid form")
		return
	}
	account, err := api.authenticator.Authenticate(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := api.tokens.IssueToken(account.Principal())
	if err != nil {
		writeError(w, err)
		return
	}
	api.setTokenCookie(w, token)
	writeJSON(w, http.StatusOK, token)
}

func (api *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	raw := requestToken(r)
	if raw == "" {
		writeError(w, auth.ErrNotValidated)
		return
	}
	claimed, err := api.tokens.Principal(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	current, err := api.authenticator.Resolve(r.Context(), claimed)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := api.tokens.RefreshToken(raw, current)
	if err != nil {
		writeError(w, err)
		return
	}
	api.setTokenCookie(w, token)
	writeJSON(w, http.StatusOK, token)
}
