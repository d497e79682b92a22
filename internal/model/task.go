package model

import "time"

// Task is a household chore. CompletedBy and CompletedAt are set together.
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    Category   `json:"category"`
	PointsValue int        `json:"points_value"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   string     `json:"created_by"`
	HouseholdID string     `json:"household_id"`
	CompletedBy *string    `json:"completed_by"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (t *Task) Completed() bool {
	return t.CompletedBy != nil
}

func (t Task) Clone() Task {
	if t.CompletedBy != nil {
		by := *t.CompletedBy
		t.CompletedBy = &by
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
