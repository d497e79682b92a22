package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/model"
)

const (
	taskFieldCategory    = "category"
	taskFieldPointsValue = "pointsValue"
	taskFieldCreatedBy   = "createdBy"
	taskFieldCompletedBy = "completedBy"
	taskFieldCompletedAt = "completedAt"
)

type TaskStore struct {
	docs docstore.Store
}

func NewTaskStore(docs docstore.Store) *TaskStore {
	return &TaskStore{docs: docs}
}

func decodeTask(snap *docstore.Snapshot) (*model.Task, error) {
	f := fields{doc: snap.Data}
	t := model.Task{
		ID:          snap.ID,
		Name:        f.str(fieldName),
		Description: f.str(fieldDescription),
		Category:    model.Category(f.str(taskFieldCategory)),
		PointsValue: f.integer(taskFieldPointsValue),
		CreatedAt:   f.time(fieldCreatedAt),
		CreatedBy:   f.str(taskFieldCreatedBy),
		HouseholdID: f.str(fieldHouseholdID),
		CompletedBy: f.optStr(taskFieldCompletedBy),
		CompletedAt: f.optTime(taskFieldCompletedAt),
	}
	if f.err != nil {
		return nil, fmt.Errorf("decode task %s: %w", snap.ID, f.err)
	}
	return &t, nil
}

func decodeTasks(snaps []docstore.Snapshot) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(snaps))
	for i := range snaps {
		t, err := decodeTask(&snaps[i])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

// Create stores a new uncompleted task. ID, CreatedAt and the completion
// fields of t are ignored.
func (s *TaskStore) Create(ctx context.Context, t model.Task) (*model.Task, error) {
	id, err := s.docs.Add(ctx, CollectionTasks, docstore.Document{
		fieldName:            t.Name,
		fieldDescription:     t.Description,
		taskFieldCategory:    string(t.Category),
		taskFieldPointsValue: t.PointsValue,
		taskFieldCreatedBy:   t.CreatedBy,
		fieldHouseholdID:     t.HouseholdID,
		taskFieldCompletedBy: nil,
		taskFieldCompletedAt: nil,
		fieldCreatedAt:       docstore.ServerTimestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	created, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("task %s missing after insert", id)
	}
	return created, nil
}

func (s *TaskStore) GetByID(ctx context.Context, id string) (*model.Task, error) {
	if id == "" {
		return nil, nil
	}
	snap, err := s.docs.Get(ctx, CollectionTasks, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return decodeTask(snap)
}

func (s *TaskStore) ListByHousehold(ctx context.Context, householdID string) ([]model.Task, error) {
	snaps, err := s.docs.Query(ctx, CollectionTasks, docstore.Where(fieldHouseholdID, householdID))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return decodeTasks(snaps)
}

// Update rewrites the editable fields of a task.
func (s *TaskStore) Update(ctx context.Context, id, name, description string, category model.Category, pointsValue int) (*model.Task, error) {
	err := s.docs.Update(ctx, CollectionTasks, id, docstore.Document{
		fieldName:            name,
		fieldDescription:     description,
		taskFieldCategory:    string(category),
		taskFieldPointsValue: pointsValue,
	})
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Complete records userID as the completer with a server-assigned timestamp.
func (s *TaskStore) Complete(ctx context.Context, id, userID string) error {
	err := s.docs.Update(ctx, CollectionTasks, id, docstore.Document{
		taskFieldCompletedBy: userID,
		taskFieldCompletedAt: docstore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// CountCompleted counts tasks of category completed by userID across all
// households.
func (s *TaskStore) CountCompleted(ctx context.Context, userID string, category model.Category) (int, error) {
	snaps, err := s.docs.Query(ctx, CollectionTasks,
		docstore.Where(taskFieldCompletedBy, userID),
		docstore.Where(taskFieldCategory, string(category)),
	)
	if err != nil {
		return 0, fmt.Errorf("count completed tasks: %w", err)
	}
	return len(snaps), nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, CollectionTasks, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
