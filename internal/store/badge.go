package store

import (
	"context"
	"fmt"

	"github.com/dukerupert/chorequest/internal/docstore"
	"github.com/dukerupert/chorequest/internal/model"
)

const (
	badgeFieldType        = "type"
	badgeFieldRequirement = "requirement"
)

// DefaultBadges is the seed set written to an empty badges collection.
var DefaultBadges = []model.Badge{
	{Name: "Cleaning Novice", Description: "Complete 5 cleaning tasks", Type: model.CategoryCleaning, Requirement: 5},
	{Name: "Cleaning Master", Description: "Complete 20 cleaning tasks", Type: model.CategoryCleaning, Requirement: 20},
	{Name: "Kitchen Hero", Description: "Complete 10 cooking tasks", Type: model.CategoryCooking, Requirement: 10},
	{Name: "Handyman", Description: "Complete 5 maintenance tasks", Type: model.CategoryMaintenance, Requirement: 5},
	{Name: "Green Thumb", Description: "Complete 3 outdoor tasks", Type: model.CategoryOutdoor, Requirement: 3},
	{Name: "Shopping Pro", Description: "Complete 8 shopping tasks", Type: model.CategoryShopping, Requirement: 8},
}

type BadgeStore struct {
	docs docstore.Store
}

func NewBadgeStore(docs docstore.Store) *BadgeStore {
	return &BadgeStore{docs: docs}
}

func decodeBadge(snap *docstore.Snapshot) (*model.Badge, error) {
	f := fields{doc: snap.Data}
	b := model.Badge{
		ID:          snap.ID,
		Name:        f.str(fieldName),
		Description: f.str(fieldDescription),
		Type:        model.Category(f.str(badgeFieldType)),
		Requirement: f.integer(badgeFieldRequirement),
	}
	if f.err != nil {
		return nil, fmt.Errorf("decode badge %s: %w", snap.ID, f.err)
	}
	return &b, nil
}

func (s *BadgeStore) list(ctx context.Context, filters ...docstore.Filter) ([]model.Badge, error) {
	snaps, err := s.docs.Query(ctx, CollectionBadges, filters...)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	badges := make([]model.Badge, 0, len(snaps))
	for i := range snaps {
		b, err := decodeBadge(&snaps[i])
		if err != nil {
			return nil, err
		}
		badges = append(badges, *b)
	}
	return badges, nil
}

func (s *BadgeStore) List(ctx context.Context) ([]model.Badge, error) {
	return s.list(ctx)
}

// ListByType returns the badges awarded for completing tasks of category.
func (s *BadgeStore) ListByType(ctx context.Context, category model.Category) ([]model.Badge, error) {
	return s.list(ctx, docstore.Where(badgeFieldType, string(category)))
}

func (s *BadgeStore) Create(ctx context.Context, b model.Badge) (*model.Badge, error) {
	id, err := s.docs.Add(ctx, CollectionBadges, docstore.Document{
		fieldName:             b.Name,
		fieldDescription:      b.Description,
		badgeFieldType:        string(b.Type),
		badgeFieldRequirement: b.Requirement,
	})
	if err != nil {
		return nil, fmt.Errorf("insert badge: %w", err)
	}
	b.ID = id
	return &b, nil
}

// SeedDefaults writes DefaultBadges when the collection is empty and returns
// the number of badges written.
func (s *BadgeStore) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, b := range DefaultBadges {
		if _, err := s.Create(ctx, b); err != nil {
			return 0, fmt.Errorf("seed badge %q: %w", b.Name, err)
		}
	}
	return len(DefaultBadges), nil
}
