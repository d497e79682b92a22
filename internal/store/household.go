package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/model"
)

const householdFieldAdminID = "adminId"

type HouseholdStore struct {
	docs docstore.Store
}

func NewHouseholdStore(docs docstore.Store) *HouseholdStore {
	return &HouseholdStore{docs: docs}
}

func decodeHousehold(snap *docstore.Snapshot) (*model.Household, error) {
	f := fields{doc: snap.Data}
	h := model.Household{
		ID:        snap.ID,
		Name:      f.str(fieldName),
		AdminID:   f.str(householdFieldAdminID),
		CreatedAt: f.time(fieldCreatedAt),
	}
	if f.err != nil {
		return nil, fmt.Errorf("decode household %s: %w", snap.ID, f.err)
	}
	return &h, nil
}

func (s *HouseholdStore) Create(ctx context.Context, name, adminID string) (*model.Household, error) {
	id, err := s.docs.Add(ctx, CollectionHouseholds, docstore.Document{
		fieldName:             name,
		householdFieldAdminID: adminID,
		fieldCreatedAt:        docstore.ServerTimestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	h, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("household %s missing after insert", id)
	}
	return h, nil
}

func (s *HouseholdStore) GetByID(ctx context.Context, id string) (*model.Household, error) {
	if id == "" {
		return nil, nil
	}
	snap, err := s.docs.Get(ctx, CollectionHouseholds, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return decodeHousehold(snap)
}

func (s *HouseholdStore) Update(ctx context.Context, id, name string) (*model.Household, error) {
	if err := s.docs.Update(ctx, CollectionHouseholds, id, docstore.Document{fieldName: name}); err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the household document only. Member profiles keep their
// reference until the next profile load clears it.
func (s *HouseholdStore) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, CollectionHouseholds, id); err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}
