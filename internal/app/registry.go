package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorequest/internal/apperr"
	"github.com/dukerupert/chorequest/internal/identity"
	"github.com/dukerupert/chorequest/internal/notify"
)

// NotifyConfig holds the bus timeouts given to every new session.
type NotifyConfig struct {
	DefaultTimeout time.Duration
	ErrorTimeout   time.Duration
}

type registryEntry struct {
	session *Session
	client  *identity.Client
}

// Registry keeps one Session per session token.
type Registry struct {
	dir    *identity.Directory
	stores Stores
	notify NotifyConfig
	base   *slog.Logger
	logger *slog.Logger

	mu        sync.RWMutex
	byToken   map[string]*registryEntry
	onSession []func(*Session)
	// revoked holds signed-out tokens until they would have expired.
	revoked map[string]time.Time
}

func NewRegistry(dir *identity.Directory, stores Stores, notifyCfg NotifyConfig, logger *slog.Logger) *Registry {
	return &Registry{
		dir:     dir,
		stores:  stores,
		notify:  notifyCfg,
		base:    logger,
		logger:  logger.With("component", "registry"),
		byToken: make(map[string]*registryEntry),
		revoked: make(map[string]time.Time),
	}
}

// OnSession registers fn to run for every session added to the registry.
// Register hooks before serving requests.
func (r *Registry) OnSession(fn func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSession = append(r.onSession, fn)
}

func (r *Registry) newSession(client *identity.Client) *Session {
	s := NewSession(client, r.stores, notify.NewBus(r.notify.DefaultTimeout, r.notify.ErrorTimeout), r.base)
	s.id = uuid.NewString()
	s.logger = s.logger.With("session_id", s.id)
	return s
}

// SignUp registers an account and returns its new session and token.
func (r *Registry) SignUp(ctx context.Context, email, password, displayName string) (*Session, string, error) {
	client := r.dir.NewClient()
	s := r.newSession(client)
	if _, err := client.SignUp(ctx, email, password, displayName); err != nil {
		s.Close()
		return nil, "", err
	}
	return r.add(s, client)
}

// SignIn authenticates and returns a new session and token.
func (r *Registry) SignIn(ctx context.Context, email, password string) (*Session, string, error) {
	client := r.dir.NewClient()
	s := r.newSession(client)
	if _, err := client.SignIn(ctx, email, password); err != nil {
		s.Close()
		return nil, "", err
	}
	return r.add(s, client)
}

// Lookup returns the session for token, resuming it from the token when the
// registry has none (for example after a restart with a fixed token key).
func (r *Registry) Lookup(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperr.ErrAuthenticationRequired
	}

	r.mu.RLock()
	e, ok := r.byToken[token]
	_, revoked := r.revoked[token]
	r.mu.RUnlock()
	if revoked {
		return nil, apperr.ErrInvalidToken
	}
	if ok {
		if e.client.Expired(time.Now()) {
			r.remove(token)
			return nil, apperr.ErrInvalidToken
		}
		return e.session, nil
	}

	client, err := r.dir.Resume(ctx, token)
	if err != nil {
		return nil, err
	}
	s := r.newSession(client)
	s.Start(ctx)

	r.mu.Lock()
	if existing, ok := r.byToken[token]; ok {
		r.mu.Unlock()
		s.Close()
		return existing.session, nil
	}
	r.byToken[token] = &registryEntry{session: s, client: client}
	hooks := r.onSession
	r.mu.Unlock()

	r.logger.Info("session resumed", "session_id", s.ID())
	for _, fn := range hooks {
		fn(s)
	}
	return s, nil
}

// SignOut signs the session out, forgets it and revokes its token. Unknown
// tokens are ignored.
func (r *Registry) SignOut(ctx context.Context, token string) error {
	r.mu.Lock()
	e, ok := r.byToken[token]
	if ok {
		r.revoked[token] = time.Now().Add(r.dir.Tokens().TTL())
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}
	err := e.session.SignOut(ctx)
	r.remove(token)
	return err
}

// Cleanup drops sessions whose tokens have expired and returns how many were
// removed. Revocations past their token lifetime are forgotten too.
func (r *Registry) Cleanup(now time.Time) int {
	r.mu.Lock()
	for token, until := range r.revoked {
		if now.After(until) {
			delete(r.revoked, token)
		}
	}
	var expired []*registryEntry
	for token, e := range r.byToken {
		if e.client.Expired(now) {
			expired = append(expired, e)
			delete(r.byToken, token)
		}
	}
	r.mu.Unlock()

	for _, e := range expired {
		e.session.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("expired sessions removed", "count", len(expired))
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byToken)
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.byToken
	r.byToken = make(map[string]*registryEntry)
	r.mu.Unlock()
	for _, e := range entries {
		e.session.Close()
	}
}

func (r *Registry) add(s *Session, client *identity.Client) (*Session, string, error) {
	token := client.Token()

	r.mu.Lock()
	r.byToken[token] = &registryEntry{session: s, client: client}
	hooks := r.onSession
	r.mu.Unlock()

	r.logger.Info("session started", "session_id", s.ID())
	for _, fn := range hooks {
		fn(s)
	}
	return s, token, nil
}

func (r *Registry) remove(token string) {
	r.mu.Lock()
	e, ok := r.byToken[token]
	delete(r.byToken, token)
	r.mu.Unlock()
	if ok {
		e.session.Close()
	}
}
