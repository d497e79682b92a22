package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/chorequest/internal/app"
	"github.com/dukerupert/chorequest/internal/apperr"
	"github.com/dukerupert/chorequest/internal/auth"
	"github.com/dukerupert/chorequest/internal/middleware"
	"github.com/dukerupert/chorequest/internal/state"
	"github.com/dukerupert/chorequest/internal/validation"
)

type AuthHandler struct {
	registry *app.Registry
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewAuthHandler(registry *app.Registry, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{registry: registry, tokenTTL: tokenTTL, logger: logger}
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req credentialsRequest) values() map[string]any {
	return map[string]any{"name": req.Name, "email": req.Email, "password": req.Password}
}

type sessionResponse struct {
	Token string         `json:"token"`
	State state.Snapshot `json:"state"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if res := validation.Validate(req.values(), app.SignUpForm); !res.Valid {
		writeError(w, apperr.Invalid("validation failed", res.Errors))
		return
	}

	s, token, err := h.registry.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.logger.Info("sign up rejected", "error", err)
		writeError(w, err)
		return
	}
	h.setCookie(w, r, token)
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, State: s.State().Snapshot()})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if res := validation.Validate(req.values(), app.SignInForm); !res.Valid {
		writeError(w, apperr.Invalid("validation failed", res.Errors))
		return
	}

	s, token, err := h.registry.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("sign in rejected", "remote", middleware.RealIP(r), "error", err)
		writeError(w, err)
		return
	}
	h.setCookie(w, r, token)
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, State: s.State().Snapshot()})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.SignOut(r.Context(), auth.Token(r.Context())); err != nil {
		h.logger.Error("sign out", "error", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
