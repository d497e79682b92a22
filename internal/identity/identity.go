// Package identity authenticates users and tracks who is signed in to a
// client session.
//
// A Directory owns the stored accounts and the token issuer. Each client
// session gets its own Client, which implements Provider: the current
// principal, sign-in/sign-up/sign-out, and change notifications.
package identity

import "context"

// Principal is the authenticated user as seen by the application.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Provider is the identity service consumed by the application session.
type Provider interface {
	// CurrentPrincipal returns the signed-in principal, or nil.
	CurrentPrincipal() *Principal
	// OnChange registers fn to be called with the new principal after
	// sign-in or sign-up, and with nil after sign-out.
	OnChange(fn func(*Principal)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) (*Principal, error)
	SignUp(ctx context.Context, email, password, displayName string) (*Principal, error)
	SignOut(ctx context.Context) error
	UpdateDisplayName(ctx context.Context, name string) error
}
