package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/identity"
	"github.com/dukerupert/chorequest/internal/model"
	"github.com/dukerupert/chorequest/internal/notify"
)

var errInjected = fmt.Errorf("%w: injected failure", docstore.ErrUnavailable)

// faultDocs counts write attempts and fails operations chosen by fail.
type faultDocs struct {
	docstore.Store

	mu     sync.Mutex
	writes map[string]int // "op collection" -> attempts
	fail   func(op, collection string) error
}

func newFaultDocs() *faultDocs {
	return &faultDocs{Store: docstore.NewMemory(), writes: make(map[string]int)}
}

func (f *faultDocs) check(op, collection string, write bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if write {
		f.writes[op+" "+collection]++
	}
	if f.fail != nil {
		return f.fail(op, collection)
	}
	return nil
}

func (f *faultDocs) setFail(fn func(op, collection string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fn
}

func (f *faultDocs) totalWrites() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.writes {
		n += c
	}
	return n
}

func (f *faultDocs) writesTo(op, collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[op+" "+collection]
}

func (f *faultDocs) Get(ctx context.Context, collection, id string) (*docstore.Snapshot, error) {
	if err := f.check("get", collection, false); err != nil {
		return nil, err
	}
	return f.Store.Get(ctx, collection, id)
}

func (f *faultDocs) Set(ctx context.Context, collection, id string, data docstore.Document) error {
	if err := f.check("set", collection, true); err != nil {
		return err
	}
	return f.Store.Set(ctx, collection, id, data)
}

func (f *faultDocs) Update(ctx context.Context, collection, id string, data docstore.Document) error {
	if err := f.check("update", collection, true); err != nil {
		return err
	}
	return f.Store.Update(ctx, collection, id, data)
}

func (f *faultDocs) Delete(ctx context.Context, collection, id string) error {
	if err := f.check("delete", collection, true); err != nil {
		return err
	}
	return f.Store.Delete(ctx, collection, id)
}

func (f *faultDocs) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Snapshot, error) {
	if err := f.check("query", collection, false); err != nil {
		return nil, err
	}
	return f.Store.Query(ctx, collection, filters...)
}

func (f *faultDocs) Add(ctx context.Context, collection string, data docstore.Document) (string, error) {
	if err := f.check("add", collection, true); err != nil {
		return "", err
	}
	return f.Store.Add(ctx, collection, data)
}

// fakeProvider is an identity provider whose principal is set by the test.
type fakeProvider struct {
	mu        sync.Mutex
	principal *identity.Principal
	listeners []func(*identity.Principal)
}

func (f *fakeProvider) CurrentPrincipal() *identity.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.principal == nil {
		return nil
	}
	p := *f.principal
	return &p
}

func (f *fakeProvider) OnChange(fn func(*identity.Principal)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	i := len(f.listeners) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listeners[i] = func(*identity.Principal) {}
	}
}

func (f *fakeProvider) set(p *identity.Principal) {
	f.mu.Lock()
	f.principal = p
	ls := slices.Clone(f.listeners)
	f.mu.Unlock()
	for _, fn := range ls {
		fn(f.CurrentPrincipal())
	}
}

func (f *fakeProvider) SignIn(context.Context, string, string) (*identity.Principal, error) {
	return nil, errors.New("not supported")
}

func (f *fakeProvider) SignUp(context.Context, string, string, string) (*identity.Principal, error) {
	return nil, errors.New("not supported")
}

func (f *fakeProvider) SignOut(context.Context) error {
	f.set(nil)
	return nil
}

func (f *fakeProvider) UpdateDisplayName(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.principal == nil {
		return errors.New("signed out")
	}
	f.principal.DisplayName = name
	return nil
}

type harness struct {
	s      *Session
	idp    *fakeProvider
	docs   *faultDocs
	stores Stores
	ctx    context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	docs := newFaultDocs()
	stores := NewStores(docs)
	idp := &fakeProvider{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewSession(idp, stores, notify.NewBus(time.Minute, time.Minute), logger)
	t.Cleanup(s.Close)
	return &harness{s: s, idp: idp, docs: docs, stores: stores, ctx: context.Background()}
}

// seedMember creates a profile with points inside a new household and
// returns the household id.
func (h *harness) seedMember(t *testing.T, userID string, points int) string {
	t.Helper()
	_, err := h.stores.Users.Create(h.ctx, userID, userID, userID+"@example.com")
	require.NoError(t, err)
	require.NoError(t, h.stores.Users.SetPoints(h.ctx, userID, points))
	hh, err := h.stores.Households.Create(h.ctx, "Home", userID)
	require.NoError(t, err)
	require.NoError(t, h.stores.Users.SetHousehold(h.ctx, userID, &hh.ID))
	return hh.ID
}

func (h *harness) addTask(t *testing.T, householdID string, category model.Category, points int) string {
	t.Helper()
	task, err := h.stores.Tasks.Create(h.ctx, model.Task{
		Name:        string(category) + " chore",
		Category:    category,
		PointsValue: points,
		CreatedBy:   "seed",
		HouseholdID: householdID,
	})
	require.NoError(t, err)
	return task.ID
}

func (h *harness) signIn(userID string) {
	h.idp.set(&identity.Principal{ID: userID, Email: userID + "@example.com"})
}

func (h *harness) messages(sev notify.Severity) []string {
	var out []string
	for _, n := range h.s.Bus().All() {
		if n.Severity == sev {
			out = append(out, n.Message)
		}
	}
	return out
}
