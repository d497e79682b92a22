package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorequest/internal/model"
)

func TestEmptyStore(t *testing.T) {
	s := New()
	assert.Nil(t, s.UserProfile())
	assert.Nil(t, s.Household())
	assert.Empty(t, s.Tasks())
	assert.Empty(t, s.Badges())

	snap := s.Snapshot()
	assert.NotNil(t, snap.Tasks)
	assert.NotNil(t, snap.Badges)
}

func TestSetIsImmediatelyVisible(t *testing.T) {
	s := New()
	s.SetUserProfile(&model.UserProfile{ID: "u1", Points: 10})
	require.NotNil(t, s.UserProfile())
	assert.Equal(t, 10, s.UserProfile().Points)

	s.SetHousehold(&model.Household{ID: "h1"})
	assert.Equal(t, "h1", s.Household().ID)

	s.SetHousehold(nil)
	assert.Nil(t, s.Household())
}

func TestSetReplacesWholeField(t *testing.T) {
	s := New()
	s.SetTasks([]model.Task{{ID: "t1"}, {ID: "t2"}})
	s.SetTasks([]model.Task{{ID: "t3"}})

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "t3", tasks[0].ID)
}

func TestReadersGetCopies(t *testing.T) {
	s := New()
	h := "h1"
	in := &model.UserProfile{ID: "u1", HouseholdID: &h, Badges: []string{"b1"}}
	s.SetUserProfile(in)

	in.Points = 99
	in.Badges[0] = "changed"

	got := s.UserProfile()
	assert.Equal(t, 0, got.Points)
	assert.Equal(t, []string{"b1"}, got.Badges)

	got.Points = 50
	*got.HouseholdID = "h2"
	assert.Equal(t, 0, s.UserProfile().Points)
	assert.Equal(t, "h1", *s.UserProfile().HouseholdID)

	by := "u1"
	s.SetTasks([]model.Task{{ID: "t1", CompletedBy: &by}})
	tasks := s.Tasks()
	*tasks[0].CompletedBy = "u2"
	assert.Equal(t, "u1", *s.Tasks()[0].CompletedBy)
}

func TestSubscribe(t *testing.T) {
	s := New()
	var got []Field
	unsubscribe := s.Subscribe(func(f Field) { got = append(got, f) })

	s.SetUserProfile(&model.UserProfile{ID: "u1"})
	s.SetHousehold(nil)
	s.SetTasks(nil)
	s.SetBadges([]model.Badge{{ID: "b1"}})
	unsubscribe()
	s.SetTasks(nil)

	assert.Equal(t, []Field{FieldUserProfile, FieldHousehold, FieldTasks, FieldBadges}, got)
}
