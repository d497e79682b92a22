// Package app implements the workflows of one signed-in client session on
// top of the identity provider, the typed stores, the cached state and the
// notification bus.
//
// A Session owns its state.Store and notify.Bus; nothing here is global.
// Profile loading is fail-open: it substitutes a fallback profile instead
// of returning an error. Every other workflow is fail-closed: it attempts a
// consistency repair, publishes a user-facing message on the bus and then
// returns the error.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukerupert/chorequest/internal/apperr"
	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/identity"
	"github.com/dukerupert/chorequest/internal/model"
	"github.com/dukerupert/chorequest/internal/notify"
	"github.com/dukerupert/chorequest/internal/state"
	"github.com/dukerupert/chorequest/internal/store"
)

// listenerTimeout bounds the loads triggered by sign-in and sign-out, which
// run without a caller context.
const listenerTimeout = 15 * time.Second

// Stores groups the typed repositories shared by every session.
type Stores struct {
	Users      *store.UserStore
	Households *store.HouseholdStore
	Tasks      *store.TaskStore
	Badges     *store.BadgeStore
}

func NewStores(docs docstore.Store) Stores {
	return Stores{
		Users:      store.NewUserStore(docs),
		Households: store.NewHouseholdStore(docs),
		Tasks:      store.NewTaskStore(docs),
		Badges:     store.NewBadgeStore(docs),
	}
}

type Session struct {
	id       string
	identity identity.Provider
	stores   Stores
	state    *state.Store
	bus      *notify.Bus
	logger   *slog.Logger

	// fallback is set while the cached profile is the Guest placeholder.
	fallback    atomic.Bool
	unsubscribe func()

	closeMu sync.Mutex
	closers []func()
}

// NewSession wires a session to provider. Call Start to load state for a
// principal that is already signed in.
func NewSession(provider identity.Provider, stores Stores, bus *notify.Bus, logger *slog.Logger) *Session {
	s := &Session{
		identity: provider,
		stores:   stores,
		state:    state.New(),
		bus:      bus,
		logger:   logger.With("component", "session"),
	}
	s.unsubscribe = provider.OnChange(s.principalChanged)
	return s
}

// Start loads profile, badges and tasks if a principal is signed in.
func (s *Session) Start(ctx context.Context) {
	if p := s.identity.CurrentPrincipal(); p != nil {
		s.load(ctx, p)
	}
}

// OnClose registers fn to run when the session closes, before the bus stops.
func (s *Session) OnClose(fn func()) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	s.closers = append(s.closers, fn)
}

// Close runs the OnClose hooks, detaches the session from its identity
// provider and stops the bus. Hooks run once.
func (s *Session) Close() {
	s.closeMu.Lock()
	closers := s.closers
	s.closers = nil
	s.closeMu.Unlock()
	for _, fn := range closers {
		fn()
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.bus.Close()
}

// ID identifies the session within a Registry. It is empty for sessions
// created outside one.
func (s *Session) ID() string { return s.id }

func (s *Session) State() *state.Store { return s.state }

func (s *Session) Bus() *notify.Bus { return s.bus }

func (s *Session) Identity() identity.Provider { return s.identity }

func (s *Session) principalChanged(p *identity.Principal) {
	ctx, cancel := context.WithTimeout(context.Background(), listenerTimeout)
	defer cancel()

	if p == nil {
		s.state.SetUserProfile(nil)
		s.state.SetHousehold(nil)
		s.state.SetTasks(nil)
		s.fallback.Store(false)
		return
	}

	if cached := s.state.UserProfile(); cached != nil && cached.ID == p.ID {
		s.VerifyAndRepair(ctx)
		return
	}
	s.load(ctx, p)
}

func (s *Session) load(ctx context.Context, p *identity.Principal) {
	s.LoadProfile(ctx, *p)
	if err := s.LoadBadges(ctx); err != nil {
		s.logger.Warn("load badges", "error", err)
	}
	if err := s.FetchTasks(ctx); err != nil {
		s.logger.Warn("fetch tasks", "error", err)
	}
	s.VerifyAndRepair(ctx)
}

// LoadBadges replaces the cached badge definitions.
func (s *Session) LoadBadges(ctx context.Context) error {
	badges, err := s.stores.Badges.List(ctx)
	if err != nil {
		return err
	}
	s.state.SetBadges(badges)
	return nil
}

// FetchTasks replaces the cached task list with the household's tasks. A
// profile without a household caches an empty list.
func (s *Session) FetchTasks(ctx context.Context) error {
	profile := s.state.UserProfile()
	if profile == nil || !profile.InHousehold() {
		s.state.SetTasks(nil)
		return nil
	}
	tasks, err := s.stores.Tasks.ListByHousehold(ctx, *profile.HouseholdID)
	if err != nil {
		return err
	}
	s.state.SetTasks(tasks)
	return nil
}

// requirePrincipal returns the signed-in principal or
// apperr.ErrAuthenticationRequired.
func (s *Session) requirePrincipal() (*identity.Principal, error) {
	p := s.identity.CurrentPrincipal()
	if p == nil {
		return nil, apperr.ErrAuthenticationRequired
	}
	return p, nil
}

// fail is the fail-closed exit of a workflow: repair, tell the user, return.
func (s *Session) fail(ctx context.Context, op string, err error) error {
	s.logger.Error(op, "error", err, "kind", apperr.Classify(err))
	s.VerifyAndRepair(ctx)
	s.bus.Error(apperr.UserMessage(err))
	return fmt.Errorf("%s: %w", op, err)
}

// updateCachedProfile applies fn to the cached profile if it belongs to
// userID.
func (s *Session) updateCachedProfile(userID string, fn func(*model.UserProfile)) {
	p := s.state.UserProfile()
	if p == nil || p.ID != userID {
		return
	}
	fn(p)
	s.state.SetUserProfile(p)
}

// ensureProfile returns the persisted profile of p, creating the default
// profile when none exists.
func (s *Session) ensureProfile(ctx context.Context, p *identity.Principal) (*model.UserProfile, error) {
	profile, err := s.stores.Users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}
	s.logger.Info("creating default profile", "user_id", p.ID)
	return s.stores.Users.Create(ctx, p.ID, defaultName(p), p.Email)
}

// defaultName is the display name, else the local part of the email.
func defaultName(p *identity.Principal) string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(p.Email, "@"); ok && local != "" {
		return local
	}
	if p.Email != "" {
		return p.Email
	}
	return "User"
}
