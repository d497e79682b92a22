package identity

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/chorequest/internal/apperr"
)

// Client is one client session's view of the identity service.
type Client struct {
	dir *Directory

	mu        sync.RWMutex
	principal *Principal
	token     string
	claims    Claims

	lmu       sync.Mutex
	listeners []changeListener
	nextID    int
}

type changeListener struct {
	id int
	fn func(*Principal)
}

var _ Provider = (*Client)(nil)

func (c *Client) CurrentPrincipal() *Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.principal == nil {
		return nil
	}
	p := *c.principal
	return &p
}

// Token returns the session token of the signed-in principal, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Expired reports whether the session token has expired at now.
func (c *Client) Expired(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.principal == nil || expired(c.claims, now)
}

func (c *Client) OnChange(fn func(*Principal)) func() {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, changeListener{id: id, fn: fn})

	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		c.listeners = slices.DeleteFunc(c.listeners, func(l changeListener) bool { return l.id == id })
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	p, err := c.dir.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := c.signedIn(p); err != nil {
		return nil, err
	}
	return c.CurrentPrincipal(), nil
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*Principal, error) {
	p, err := c.dir.Register(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	if err := c.signedIn(p); err != nil {
		return nil, err
	}
	return c.CurrentPrincipal(), nil
}

func (c *Client) SignOut(_ context.Context) error {
	c.mu.Lock()
	wasSignedIn := c.principal != nil
	c.principal = nil
	c.token = ""
	c.claims = Claims{}
	c.mu.Unlock()

	if wasSignedIn {
		c.fire(nil)
	}
	return nil
}

// UpdateDisplayName changes the signed-in account's display name. It does
// not fire change listeners.
func (c *Client) UpdateDisplayName(ctx context.Context, name string) error {
	p := c.CurrentPrincipal()
	if p == nil {
		return apperr.ErrAuthenticationRequired
	}
	name = strings.TrimSpace(name)
	if err := c.dir.setDisplayName(ctx, p.ID, name); err != nil {
		return err
	}

	c.mu.Lock()
	if c.principal != nil && c.principal.ID == p.ID {
		c.principal.DisplayName = name
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) signedIn(p *Principal) error {
	token, claims, err := c.dir.issue(p)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.principal = p
	c.token = token
	c.claims = claims
	c.mu.Unlock()

	c.fire(c.CurrentPrincipal())
	return nil
}

func (c *Client) fire(p *Principal) {
	c.lmu.Lock()
	ls := slices.Clone(c.listeners)
	c.lmu.Unlock()
	for _, l := range ls {
		l.fn(p)
	}
}
