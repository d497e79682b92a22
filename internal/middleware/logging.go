package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the connection for websocket
// upgrades.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestIdentity is filled in by RequireAuth so the request log line can
// name the session and user. The logger sits outside the auth middleware and
// never sees the authenticated request context.
type requestIdentity struct {
	sessionID string
	userID    string
}

type requestIdentityKey struct{}

func recordIdentity(ctx context.Context, sessionID, userID string) {
	if id, ok := ctx.Value(requestIdentityKey{}).(*requestIdentity); ok {
		id.sessionID = sessionID
		id.userID = userID
	}
}

// RequestLogger logs one line per request: method, path, status, duration,
// client IP and, for authenticated requests, the session and user ids.
// 5xx log at error and 4xx at warn.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			id := &requestIdentity{}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIdentityKey{}, id)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote", RealIP(r)),
			}
			if id.userID != "" {
				attrs = append(attrs,
					slog.String("session_id", id.sessionID),
					slog.String("user_id", id.userID),
				)
			}

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}
