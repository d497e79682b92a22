// Package state holds the cached aggregates of one application session:
// the signed-in user's profile, their household, the household's tasks and
// the badge definitions.
//
// Fields are only changed through the Set methods, each of which replaces
// the whole field. Readers always receive copies.
package state

import (
	"slices"
	"sync"

	"github.com/dukerupert/chorequest/internal/model"
)

// Field names a cached aggregate in change notifications.
type Field string

const (
	FieldUserProfile Field = "user_profile"
	FieldHousehold   Field = "household"
	FieldTasks       Field = "tasks"
	FieldBadges      Field = "badges"
)

// Listener is called synchronously after a field changes.
type Listener func(Field)

type Store struct {
	mu        sync.RWMutex
	profile   *model.UserProfile
	household *model.Household
	tasks     []model.Task
	badges    []model.Badge

	lmu       sync.Mutex
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn Listener
}

func New() *Store {
	return &Store{}
}

// UserProfile returns a copy of the cached profile, or nil.
func (s *Store) UserProfile() *model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// Household returns a copy of the cached household, or nil.
func (s *Store) Household() *model.Household {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.household.Clone()
}

func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

func (s *Store) Badges() []model.Badge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.badges)
}

func (s *Store) SetUserProfile(p *model.UserProfile) {
	s.mu.Lock()
	s.profile = p.Clone()
	s.mu.Unlock()
	s.notify(FieldUserProfile)
}

func (s *Store) SetHousehold(h *model.Household) {
	s.mu.Lock()
	s.household = h.Clone()
	s.mu.Unlock()
	s.notify(FieldHousehold)
}

func (s *Store) SetTasks(tasks []model.Task) {
	s.mu.Lock()
	s.tasks = cloneTasks(tasks)
	s.mu.Unlock()
	s.notify(FieldTasks)
}

func (s *Store) SetBadges(badges []model.Badge) {
	s.mu.Lock()
	s.badges = slices.Clone(badges)
	s.mu.Unlock()
	s.notify(FieldBadges)
}

// Snapshot is a consistent copy of every field.
type Snapshot struct {
	UserProfile *model.UserProfile `json:"user_profile"`
	Household   *model.Household   `json:"household"`
	Tasks       []model.Task       `json:"tasks"`
	Badges      []model.Badge      `json:"badges"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		UserProfile: s.profile.Clone(),
		Household:   s.household.Clone(),
		Tasks:       cloneTasks(s.tasks),
		Badges:      slices.Clone(s.badges),
	}
	if snap.Tasks == nil {
		snap.Tasks = []model.Task{}
	}
	if snap.Badges == nil {
		snap.Badges = []model.Badge{}
	}
	return snap
}

// Subscribe registers fn for change notifications and returns a function
// that unregisters it.
func (s *Store) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(l listener) bool { return l.id == id })
	}
}

func (s *Store) notify(f Field) {
	s.lmu.Lock()
	ls := slices.Clone(s.listeners)
	s.lmu.Unlock()
	for _, l := range ls {
		l.fn(f)
	}
}

func cloneTasks(tasks []model.Task) []model.Task {
	if tasks == nil {
		return nil
	}
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
