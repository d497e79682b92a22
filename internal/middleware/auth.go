package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/chorequest/internal/app"
	"github.com/dukerupert/chorequest/internal/apperr"
	"github.com/dukerupert/chorequest/internal/auth"
)

// SessionCookieName is the cookie that carries the session token for
// browser clients.
const SessionCookieName = "chorequest_session"

// TokenFromRequest returns the bearer token, else the session cookie value.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth resolves the request's token to a session and populates
// AuthContext. Requests without a live session get a 401 JSON error.
func RequireAuth(registry *app.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			session, err := registry.Lookup(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}
			p := session.Identity().CurrentPrincipal()
			if p == nil {
				writeError(w, apperr.ErrAuthenticationRequired)
				return
			}

			recordIdentity(r.Context(), session.ID(), p.ID)

			ac := auth.AuthContext{
				Session: session,
				Token:   token,
				UserID:  p.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated user administers their
// household.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "Only the household admin can do that."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]string{"error": apperr.UserMessage(err)})
}
