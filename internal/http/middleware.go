package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/logging"
)

const guestCookieMaxAge = 365 * 24 * 60 * 60

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (api *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		actor := auth.PrincipalFromContext(r.Context())
		fields := map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"bytes":       rec.bytes,
			"duration_ms": time.Since(started).Milliseconds(),
		}
		if actor.IsAuthenticated() {
			fields["user_id"] = actor.UserID.String()
		}
		logger := logging.WithFields(api.logger, fields)
		if rec.status >= http.StatusInternalServerError {
			logger.Error("http.request.completed")
			return
		}
		logger.Info("http.request.completed")
	})
}

// identify resolves the request principal from a bearer token or the
// access_token cookie and makes sure every visitor carries a guest id.
func (api *API) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		guestID := ""
		if cookie, err := r.Cookie(guestCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
			guestID = cookie.Value
		} else {
			guestID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     guestCookie,
				Value:    guestID,
				Path:     "/",
				MaxAge:   guestCookieMaxAge,
				HttpOnly: true,
				Secure:   api.secureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}

		principal := auth.Guest(guestID)
		if raw := requestToken(r); raw != "" {
			p, err := api.tokens.Principal(raw)
			if err == nil {
				p.GuestID = guestID
				p, err = api.authenticator.Resolve(r.Context(), p)
			}
			if err == nil {
				principal = p
			} else {
				api.logger.Debug("http.auth.invalid_token", "error", err)
			}
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

func requestToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := bearer(header); ok {
			return token
		}
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		if token, ok := bearer(cookie.Value); ok {
			return token
		}
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func bearer(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, auth.TokenType) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (api *API) setTokenCookie(w http.ResponseWriter, token auth.Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    "Bearer " + token.AccessToken,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   api.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
