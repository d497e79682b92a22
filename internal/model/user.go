package model

import (
	"slices"
	"time"
)

type UserProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Points      int       `json:"points"`
	HouseholdID *string   `json:"household_id"`
	Badges      []string  `json:"badges"`
	// CreatedAt is the store's server timestamp, kept as RFC3339Nano text in
	// the document and parsed to a time.Time (UTC) on read.
	CreatedAt time.Time `json:"created_at"`
}

// HasBadge reports whether the badge id is in the profile's badge set.
func (p *UserProfile) HasBadge(badgeID string) bool {
	return slices.Contains(p.Badges, badgeID)
}

// InHousehold reports whether the profile references a household.
func (p *UserProfile) InHousehold() bool {
	return p.HouseholdID != nil && *p.HouseholdID != ""
}

// Clone returns a deep copy.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	if p.HouseholdID != nil {
		h := *p.HouseholdID
		c.HouseholdID = &h
	}
	c.Badges = slices.Clone(p.Badges)
	return &c
}
