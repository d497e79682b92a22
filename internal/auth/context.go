package auth

import (
	"context"

	"github.com/dukerupert/chorequest/internal/app"
)

type contextKey struct{}

type AuthContext struct {
	Session *app.Session
	Token   string
	UserID  string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// Session returns the request's session, or nil.
func Session(ctx context.Context) *app.Session {
	ac, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return ac.Session
}

func Token(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Token
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}

// IsAdmin reports whether the signed-in user administers their cached
// household.
func IsAdmin(ctx context.Context) bool {
	s := Session(ctx)
	if s == nil {
		return false
	}
	h := s.State().Household()
	return h != nil && h.AdminID == UserID(ctx)
}
