package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/model"
)

const (
	userFieldEmail  = "email"
	userFieldPoints = "points"
	userFieldBadges = "badges"
)

type UserStore struct {
	docs docstore.Store
}

func NewUserStore(docs docstore.Store) *UserStore {
	return &UserStore{docs: docs}
}

func decodeUser(snap *docstore.Snapshot) (*model.UserProfile, error) {
	f := fields{doc: snap.Data}
	u := model.UserProfile{
		ID:          snap.ID,
		Name:        f.str(fieldName),
		Email:       f.str(userFieldEmail),
		Points:      f.integer(userFieldPoints),
		HouseholdID: f.optStr(fieldHouseholdID),
		Badges:      f.strings(userFieldBadges),
		CreatedAt:   f.time(fieldCreatedAt),
	}
	if f.err != nil {
		return nil, fmt.Errorf("decode user %s: %w", snap.ID, f.err)
	}
	return &u, nil
}

// Create writes a fresh profile with zero points, no household and no badges.
// An existing document with the same id is replaced.
func (s *UserStore) Create(ctx context.Context, id, name, email string) (*model.UserProfile, error) {
	err := s.docs.Set(ctx, CollectionUsers, id, docstore.Document{
		fieldName:        name,
		userFieldEmail:   email,
		userFieldPoints:  0,
		fieldHouseholdID: nil,
		userFieldBadges:  []string{},
		fieldCreatedAt:   docstore.ServerTimestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	snap, err := s.docs.Get(ctx, CollectionUsers, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return decodeUser(snap)
}

func (s *UserStore) ListByHousehold(ctx context.Context, householdID string) ([]model.UserProfile, error) {
	snaps, err := s.docs.Query(ctx, CollectionUsers, docstore.Where(fieldHouseholdID, householdID))
	if err != nil {
		return nil, fmt.Errorf("list household members: %w", err)
	}

	users := make([]model.UserProfile, 0, len(snaps))
	for i := range snaps {
		u, err := decodeUser(&snaps[i])
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func (s *UserStore) SetPoints(ctx context.Context, id string, points int) error {
	if err := s.docs.Update(ctx, CollectionUsers, id, docstore.Document{userFieldPoints: points}); err != nil {
		return fmt.Errorf("update user points: %w", err)
	}
	return nil
}

// SetHousehold points the profile at a household, or clears the reference
// when householdID is nil.
func (s *UserStore) SetHousehold(ctx context.Context, id string, householdID *string) error {
	err := s.docs.Update(ctx, CollectionUsers, id, docstore.Document{fieldHouseholdID: optional(householdID)})
	if err != nil {
		return fmt.Errorf("update user household: %w", err)
	}
	return nil
}

func (s *UserStore) UpdateName(ctx context.Context, id, name string) error {
	if err := s.docs.Update(ctx, CollectionUsers, id, docstore.Document{fieldName: name}); err != nil {
		return fmt.Errorf("update user name: %w", err)
	}
	return nil
}

// AwardBadge adds badgeID to the user's badge set. Awarding a held badge is
// a no-op.
func (s *UserStore) AwardBadge(ctx context.Context, id, badgeID string) error {
	err := s.docs.Update(ctx, CollectionUsers, id, docstore.Document{
		userFieldBadges: docstore.ArrayUnion(badgeID),
	})
	if err != nil {
		return fmt.Errorf("award badge: %w", err)
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, CollectionUsers, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
