package app

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/chorequest/internal/apperr"
	"github.com/dukerupert/chorequest/internal/model"
)

// Completion describes a successful task completion.
type Completion struct {
	Task         model.Task    `json:"task"`
	PointsEarned int           `json:"points_earned"`
	TotalPoints  int           `json:"total_points"`
	BadgesEarned []model.Badge `json:"badges_earned"`
}

// TaskInput holds the editable fields of a task.
type TaskInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    model.Category `json:"category"`
	PointsValue int            `json:"points_value"`
}

func (in TaskInput) values() map[string]any {
	return map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"category":    string(in.Category),
		"pointsValue": in.PointsValue,
	}
}

// CompleteTask marks a task of the signed-in user's household completed by
// userID (the signed-in principal when empty), credits its points and awards
// any badges whose threshold the user has now reached. userID must be a
// member of the task's household.
//
// The point total is computed from the cached profile when it belongs to
// userID, so two concurrent completions by the same user can lose one
// increment. The Guest placeholder is never a basis: the profile is reloaded
// first and the completion fails if it is still unavailable. The task write
// and the points write are separate: if the second fails the task stays
// completed without credit.
func (s *Session) CompleteTask(ctx context.Context, taskID, userID string) (*Completion, error) {
	const op = "complete task"
	p, err := s.requirePrincipal()
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if s.fallback.Load() && !s.VerifyAndRepair(ctx) {
		return nil, s.fail(ctx, op, apperr.ErrUnavailable)
	}
	if userID == "" {
		userID = p.ID
	}

	task, err := s.householdTask(ctx, taskID)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if task.Completed() {
		return nil, s.fail(ctx, op, apperr.ErrTaskCompleted)
	}

	basis := s.state.UserProfile()
	if basis == nil || basis.ID != userID {
		basis, err = s.stores.Users.GetByID(ctx, userID)
		if err != nil {
			return nil, s.fail(ctx, op, err)
		}
		if basis == nil || !basis.InHousehold() || *basis.HouseholdID != task.HouseholdID {
			return nil, s.fail(ctx, op, apperr.ErrNotMember)
		}
	}
	newPoints := basis.Points + task.PointsValue

	if err := s.stores.Tasks.Complete(ctx, task.ID, userID); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if err := s.stores.Users.SetPoints(ctx, userID, newPoints); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	s.updateCachedProfile(userID, func(u *model.UserProfile) { u.Points = newPoints })

	earned, err := s.awardBadges(ctx, userID, task.Category, basis.Badges)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	if err := s.FetchTasks(ctx); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	s.VerifyAndRepair(ctx)

	s.logger.Info("task completed",
		"task_id", task.ID,
		"user_id", userID,
		"points", task.PointsValue,
		"total", newPoints,
		"badges_earned", len(earned),
	)
	s.bus.Success(fmt.Sprintf("Task completed! You earned %d points.", task.PointsValue))
	for _, b := range earned {
		s.bus.Success(fmt.Sprintf("New badge unlocked: %s!", b.Name))
	}

	completed := *task
	completed.CompletedBy = &userID
	if refreshed, err := s.stores.Tasks.GetByID(ctx, task.ID); err == nil && refreshed != nil {
		completed = *refreshed
	}
	return &Completion{
		Task:         completed,
		PointsEarned: task.PointsValue,
		TotalPoints:  newPoints,
		BadgesEarned: earned,
	}, nil
}

// awardBadges evaluates every badge of category concurrently. A badge is
// awarded when the user's completed count reaches its requirement; awarding
// is a set union, so repeats are no-ops. The returned badges are the ones
// not in held before this call.
func (s *Session) awardBadges(ctx context.Context, userID string, category model.Category, held []string) ([]model.Badge, error) {
	badges, err := s.stores.Badges.ListByType(ctx, category)
	if err != nil {
		return nil, err
	}

	awarded := make([]bool, len(badges))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range badges {
		g.Go(func() error {
			n, err := s.stores.Tasks.CountCompleted(gctx, userID, b.Type)
			if err != nil {
				return err
			}
			if n < b.Requirement {
				return nil
			}
			if err := s.stores.Users.AwardBadge(gctx, userID, b.ID); err != nil {
				return err
			}
			awarded[i] = true
			return nil
		})
	}
	err = g.Wait()

	// Record what did land even if another badge failed.
	var earned []model.Badge
	var ids []string
	for i, b := range badges {
		if !awarded[i] {
			continue
		}
		ids = append(ids, b.ID)
		if !slices.Contains(held, b.ID) {
			earned = append(earned, b)
		}
	}
	if len(ids) > 0 {
		s.updateCachedProfile(userID, func(u *model.UserProfile) {
			for _, id := range ids {
				if !u.HasBadge(id) {
					u.Badges = append(u.Badges, id)
				}
			}
		})
	}
	return earned, err
}

// AddTask creates a task in the signed-in user's household.
func (s *Session) AddTask(ctx context.Context, in TaskInput) (*model.Task, error) {
	const op = "add task"
	p, householdID, err := s.requireHousehold()
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if err := checkForm(TaskForm, in.values()); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	task, err := s.stores.Tasks.Create(ctx, model.Task{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		PointsValue: in.PointsValue,
		CreatedBy:   p.ID,
		HouseholdID: householdID,
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if err := s.FetchTasks(ctx); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	s.bus.Success("Task added successfully!")
	return task, nil
}

// UpdateTask edits a task of the signed-in user's household.
func (s *Session) UpdateTask(ctx context.Context, taskID string, in TaskInput) (*model.Task, error) {
	const op = "update task"
	if _, err := s.householdTask(ctx, taskID); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if err := checkForm(TaskForm, in.values()); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	task, err := s.stores.Tasks.Update(ctx, taskID, in.Name, in.Description, in.Category, in.PointsValue)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if err := s.FetchTasks(ctx); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	s.bus.Success("Task updated successfully!")
	return task, nil
}

// DeleteTask removes a task of the signed-in user's household.
func (s *Session) DeleteTask(ctx context.Context, taskID string) error {
	const op = "delete task"
	if _, err := s.householdTask(ctx, taskID); err != nil {
		return s.fail(ctx, op, err)
	}
	if err := s.stores.Tasks.Delete(ctx, taskID); err != nil {
		return s.fail(ctx, op, err)
	}
	if err := s.FetchTasks(ctx); err != nil {
		return s.fail(ctx, op, err)
	}
	s.bus.Success("Task deleted successfully!")
	return nil
}

// householdTask loads a task that belongs to the signed-in user's household.
// Tasks of other households are reported as not found.
func (s *Session) householdTask(ctx context.Context, taskID string) (*model.Task, error) {
	_, householdID, err := s.requireHousehold()
	if err != nil {
		return nil, err
	}
	task, err := s.stores.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil || task.HouseholdID != householdID {
		return nil, apperr.ErrTaskNotFound
	}
	return task, nil
}
