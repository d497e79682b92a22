package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorequest/internal/apperr"
	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/model"
	"github.com/dukerupert/chorequest/internal/notify"
	"github.com/dukerupert/chorequest/internal/store"
)

func TestCompleteTaskCreditsExactPoints(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 0)
	taskID := h.addTask(t, hid, model.CategoryCleaning, 10)
	h.signIn("u1")
	require.Equal(t, 0, h.s.State().UserProfile().Points)

	res, err := h.s.CompleteTask(h.ctx, taskID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, res.PointsEarned)
	assert.Equal(t, 10, res.TotalPoints)
	assert.Equal(t, 10, h.s.State().UserProfile().Points)

	persisted, err := h.stores.Users.GetByID(h.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, persisted.Points)

	task, err := h.stores.Tasks.GetByID(h.ctx, taskID)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedBy)
	assert.Equal(t, "u1", *task.CompletedBy)
	assert.NotNil(t, task.CompletedAt)

	cached := h.s.State().Tasks()
	require.Len(t, cached, 1)
	assert.True(t, cached[0].Completed(), "task list should be refreshed")

	assert.Contains(t, h.messages(notify.SeveritySuccess), "Task completed! You earned 10 points.")
}

func TestCompleteTaskDefaultsToSignedInUser(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 3)
	taskID := h.addTask(t, hid, model.CategoryDishes, 4)
	h.signIn("u1")

	res, err := h.s.CompleteTask(h.ctx, taskID, "")
	require.NoError(t, err)
	assert.Equal(t, 7, res.TotalPoints)
	assert.Equal(t, "u1", *res.Task.CompletedBy)
}

func TestCompleteTaskNotFound(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 5)
	h.addTask(t, hid, model.CategoryCooking, 10)
	h.signIn("u1")

	tasksBefore := h.s.State().Tasks()
	writesBefore := h.docs.totalWrites()

	res, err := h.s.CompleteTask(h.ctx, "does-not-exist", "u1")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperr.ErrTaskNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.Classify(err))

	assert.Equal(t, writesBefore, h.docs.totalWrites(), "no writes on missing task")
	assert.Equal(t, 5, h.s.State().UserProfile().Points)
	assert.Equal(t, tasksBefore, h.s.State().Tasks())
	assert.Equal(t, []string{"This task no longer exists."}, h.messages(notify.SeverityError))
}

func TestCompleteTaskUnauthenticated(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 0)
	taskID := h.addTask(t, hid, model.CategoryCleaning, 10)
	writesBefore := h.docs.totalWrites()

	_, err := h.s.CompleteTask(h.ctx, taskID, "u1")
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
	assert.Equal(t, writesBefore, h.docs.totalWrites(), "no writes when signed out")

	task, err := h.stores.Tasks.GetByID(h.ctx, taskID)
	require.NoError(t, err)
	assert.False(t, task.Completed())
	assert.Equal(t, []string{"Please sign in to continue."}, h.messages(notify.SeverityError))
}

func TestCompleteTaskTwiceFails(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 0)
	taskID := h.addTask(t, hid, model.CategoryCleaning, 10)
	h.signIn("u1")

	_, err := h.s.CompleteTask(h.ctx, taskID, "u1")
	require.NoError(t, err)
	_, err = h.s.CompleteTask(h.ctx, taskID, "u1")
	assert.ErrorIs(t, err, apperr.ErrTaskCompleted)
	assert.Equal(t, 10, h.s.State().UserProfile().Points)
}

// The points basis is the cached profile, not a fresh read: a credit that
// lands in the store behind the cache is overwritten.
func TestCompleteTaskUsesCachedPointsBasis(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 0)
	taskID := h.addTask(t, hid, model.CategoryCleaning, 10)
	h.signIn("u1")

	// Another session credits 50 points; this session's cache still says 0.
	require.NoError(t, h.stores.Users.SetPoints(h.ctx, "u1", 50))

	res, err := h.s.CompleteTask(h.ctx, taskID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, res.TotalPoints)

	persisted, err := h.stores.Users.GetByID(h.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, persisted.Points, "concurrent credit is lost")
}

func TestCompleteTaskForOtherUserReadsTheirPoints(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 0)
	_, err := h.stores.Users.Create(h.ctx, "u2", "Bo", "bo@example.com")
	require.NoError(t, err)
	require.NoError(t, h.stores.Users.SetPoints(h.ctx, "u2", 7))
	require.NoError(t, h.stores.Users.SetHousehold(h.ctx, "u2", &hid))
	taskID := h.addTask(t, hid, model.CategoryPets, 10)
	h.signIn("u1")

	res, err := h.s.CompleteTask(h.ctx, taskID, "u2")
	require.NoError(t, err)
	assert.Equal(t, 17, res.TotalPoints)
	assert.Equal(t, 0, h.s.State().UserProfile().Points, "cached profile of u1 untouched")
}

func TestCleaningNoviceAwardedOnce(t *testing.T) {
	h := newHarness(t)
	_, err := h.stores.Badges.SeedDefaults(h.ctx)
	require.NoError(t, err)
	hid := h.seedMember(t, "u1", 0)
	h.signIn("u1")

	novice := findBadge(t, h, "Cleaning Novice")

	first := h.addTask(t, hid, model.CategoryCleaning, 10)
	res, err := h.s.CompleteTask(h.ctx, first, "u1")
	require.NoError(t, err)
	assert.Empty(t, res.BadgesEarned)
	assert.Empty(t, h.s.State().UserProfile().Badges, "count 1 < 5")

	var earnedAt []int
	for i := 2; i <= 7; i++ {
		id := h.addTask(t, hid, model.CategoryCleaning, 10)
		res, err := h.s.CompleteTask(h.ctx, id, "u1")
		require.NoError(t, err)
		if len(res.BadgesEarned) > 0 {
			earnedAt = append(earnedAt, i)
			assert.Equal(t, novice.ID, res.BadgesEarned[0].ID)
		}
	}
	assert.Equal(t, []int{5}, earnedAt, "badge reported only when first crossing the requirement")

	assert.Equal(t, []string{novice.ID}, h.s.State().UserProfile().Badges)
	persisted, err := h.stores.Users.GetByID(h.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{novice.ID}, persisted.Badges)
	assert.Equal(t, 70, persisted.Points)

	badgeMessages := 0
	for _, m := range h.messages(notify.SeveritySuccess) {
		if m == "New badge unlocked: Cleaning Novice!" {
			badgeMessages++
		}
	}
	assert.Equal(t, 1, badgeMessages)
}

func TestBadgesOfOtherCategoriesIgnored(t *testing.T) {
	h := newHarness(t)
	_, err := h.stores.Badges.SeedDefaults(h.ctx)
	require.NoError(t, err)
	hid := h.seedMember(t, "u1", 0)
	h.signIn("u1")

	for i := 0; i < 3; i++ {
		id := h.addTask(t, hid, model.CategoryCooking, 5)
		_, err := h.s.CompleteTask(h.ctx, id, "u1")
		require.NoError(t, err)
	}
	// Green Thumb needs 3 outdoor tasks, not cooking ones.
	assert.Empty(t, h.s.State().UserProfile().Badges)
}

func TestCompleteTaskPartialFailure(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 0)
	taskID := h.addTask(t, hid, model.CategoryCleaning, 10)
	h.signIn("u1")

	h.docs.setFail(func(op, collection string) error {
		if op == "update" && collection == store.CollectionUsers {
			return errInjected
		}
		return nil
	})

	_, err := h.s.CompleteTask(h.ctx, taskID, "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, docstore.ErrUnavailable))
	assert.Equal(t, apperr.KindUnavailable, apperr.Classify(err))

	h.docs.setFail(nil)
	task, err := h.stores.Tasks.GetByID(h.ctx, taskID)
	require.NoError(t, err)
	assert.True(t, task.Completed(), "task write is not rolled back")

	persisted, err := h.stores.Users.GetByID(h.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, persisted.Points)
	assert.Equal(t, 0, h.s.State().UserProfile().Points)

	assert.Equal(t, []string{"Service temporarily unavailable. Please try again later."}, h.messages(notify.SeverityError))
}

// A Guest placeholder left by a failed profile load has zero points; it
// must not overwrite the stored total.
func TestCompleteTaskAfterGuestFallbackKeepsStoredPoints(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 500)
	taskID := h.addTask(t, hid, model.CategoryCleaning, 10)

	h.docs.setFail(func(op, collection string) error {
		if collection == store.CollectionUsers {
			return errInjected
		}
		return nil
	})
	h.signIn("u1")
	require.Equal(t, GuestName, h.s.State().UserProfile().Name)
	require.Equal(t, 0, h.s.State().UserProfile().Points)
	h.docs.setFail(nil)

	res, err := h.s.CompleteTask(h.ctx, taskID, "")
	require.NoError(t, err)
	assert.Equal(t, 510, res.TotalPoints)

	persisted, err := h.stores.Users.GetByID(h.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 510, persisted.Points)
	assert.Equal(t, 510, h.s.State().UserProfile().Points)
}

func TestCompleteTaskWhileFallbackPersistsFails(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 500)
	taskID := h.addTask(t, hid, model.CategoryCleaning, 10)

	h.docs.setFail(func(op, collection string) error {
		if op == "get" && collection == store.CollectionUsers {
			return errInjected
		}
		return nil
	})
	h.signIn("u1")
	writesBefore := h.docs.totalWrites()

	_, err := h.s.CompleteTask(h.ctx, taskID, "")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.Equal(t, writesBefore, h.docs.totalWrites(), "no writes while the profile is unavailable")

	h.docs.setFail(nil)
	persisted, err := h.stores.Users.GetByID(h.ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 500, persisted.Points)
	task, err := h.stores.Tasks.GetByID(h.ctx, taskID)
	require.NoError(t, err)
	assert.False(t, task.Completed())
}

func TestCompleteTaskOfOtherHouseholdIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.seedMember(t, "intruder", 0)
	other := h.seedMember(t, "owner", 0)
	foreign := h.addTask(t, other, model.CategoryCleaning, 50)
	h.signIn("intruder")
	writesBefore := h.docs.totalWrites()

	_, err := h.s.CompleteTask(h.ctx, foreign, "")
	assert.ErrorIs(t, err, apperr.ErrTaskNotFound)
	_, err = h.s.CompleteTask(h.ctx, foreign, "owner")
	assert.ErrorIs(t, err, apperr.ErrTaskNotFound)
	assert.Equal(t, writesBefore, h.docs.totalWrites())

	task, err := h.stores.Tasks.GetByID(h.ctx, foreign)
	require.NoError(t, err)
	assert.False(t, task.Completed())
	for _, id := range []string{"intruder", "owner"} {
		u, err := h.stores.Users.GetByID(h.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, u.Points, id)
	}
}

func TestCompleteTaskCreditingNonMemberFails(t *testing.T) {
	h := newHarness(t)
	hid := h.seedMember(t, "u1", 0)
	h.seedMember(t, "u2", 0)
	_, err := h.stores.Users.Create(h.ctx, "loner", "Lo", "lo@example.com")
	require.NoError(t, err)
	taskID := h.addTask(t, hid, model.CategoryCleaning, 10)
	h.signIn("u1")

	for _, userID := range []string{"u2", "loner", "ghost"} {
		_, err := h.s.CompleteTask(h.ctx, taskID, userID)
		assert.ErrorIs(t, err, apperr.ErrNotMember, userID)
	}

	task, err := h.stores.Tasks.GetByID(h.ctx, taskID)
	require.NoError(t, err)
	assert.False(t, task.Completed())
	assert.Contains(t, h.messages(notify.SeverityError), "That person is not a member of your household.")
}

func TestAddTaskValidation(t *testing.T) {
	h := newHarness(t)
	h.seedMember(t, "u1", 0)
	h.signIn("u1")

	_, err := h.s.AddTask(h.ctx, TaskInput{Name: "ab", Category: "gardening", PointsValue: 0})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidInput, apperr.Classify(err))

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "Must be at least 3 characters", details["name"])
	assert.Equal(t, "Please choose a valid category", details["category"])
	assert.Equal(t, "Must be at least 1", details["pointsValue"])
}

func TestAddUpdateDeleteTask(t *testing.T) {
	h := newHarness(t)
	h.seedMember(t, "u1", 0)
	h.signIn("u1")

	task, err := h.s.AddTask(h.ctx, TaskInput{Name: "Walk dog", Category: model.CategoryPets, PointsValue: 5})
	require.NoError(t, err)
	assert.Equal(t, "u1", task.CreatedBy)
	require.Len(t, h.s.State().Tasks(), 1)

	updated, err := h.s.UpdateTask(h.ctx, task.ID, TaskInput{Name: "Walk dogs", Category: model.CategoryPets, PointsValue: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.PointsValue)
	assert.Equal(t, "Walk dogs", h.s.State().Tasks()[0].Name)

	require.NoError(t, h.s.DeleteTask(h.ctx, task.ID))
	assert.Empty(t, h.s.State().Tasks())
}

func TestTaskOfOtherHouseholdIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.seedMember(t, "u1", 0)
	other := h.seedMember(t, "u2", 0)
	foreign := h.addTask(t, other, model.CategoryCleaning, 5)
	h.signIn("u1")

	err := h.s.DeleteTask(h.ctx, foreign)
	assert.ErrorIs(t, err, apperr.ErrTaskNotFound)

	still, err := h.stores.Tasks.GetByID(h.ctx, foreign)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestAddTaskWithoutHousehold(t *testing.T) {
	h := newHarness(t)
	_, err := h.stores.Users.Create(h.ctx, "u1", "Ann", "ann@example.com")
	require.NoError(t, err)
	h.signIn("u1")

	_, err = h.s.AddTask(h.ctx, TaskInput{Name: "Vacuum", Category: model.CategoryCleaning, PointsValue: 5})
	assert.ErrorIs(t, err, apperr.ErrNoHousehold)
}

func findBadge(t *testing.T, h *harness, name string) model.Badge {
	t.Helper()
	badges, err := h.stores.Badges.List(h.ctx)
	require.NoError(t, err)
	for _, b := range badges {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("badge %q not seeded", name)
	return model.Badge{}
}
