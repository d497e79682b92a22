package app

import (
	"context"

	"github.com/dukerupert/chorequest/internal/identity"
	"github.com/dukerupert/chorequest/internal/model"
)

// GuestName is the name of the fallback profile.
const GuestName = "Guest"

// ProfileLoad is the outcome of LoadProfile. When Fallback is true the
// cached profile is the Guest placeholder and Err holds the cause.
type ProfileLoad struct {
	Profile   *model.UserProfile
	Household *model.Household
	// Created is set when a default profile was written.
	Created bool
	// Healed is set when a dangling household reference was cleared.
	Healed   bool
	Fallback bool
	Err      error
}

// LoadProfile fetches (or creates) the principal's profile and household
// into the cache. It never returns an error: on failure the Guest profile
// is cached and the cause is reported in the result.
func (s *Session) LoadProfile(ctx context.Context, p identity.Principal) ProfileLoad {
	// A household from a previous identity must not show while loading.
	s.state.SetHousehold(nil)

	res, err := s.loadProfile(ctx, &p)
	if err != nil {
		s.logger.Error("load profile failed, using fallback", "user_id", p.ID, "error", err)
		fb := &model.UserProfile{ID: p.ID, Name: GuestName, Email: p.Email, Badges: []string{}}
		s.state.SetUserProfile(fb)
		s.fallback.Store(true)
		return ProfileLoad{Profile: fb.Clone(), Fallback: true, Err: err}
	}
	s.fallback.Store(false)
	return res
}

func (s *Session) loadProfile(ctx context.Context, p *identity.Principal) (ProfileLoad, error) {
	var res ProfileLoad

	profile, err := s.stores.Users.GetByID(ctx, p.ID)
	if err != nil {
		return res, err
	}
	if profile == nil {
		profile, err = s.stores.Users.Create(ctx, p.ID, defaultName(p), p.Email)
		if err != nil {
			return res, err
		}
		res.Created = true
		s.logger.Info("created default profile", "user_id", p.ID)
	}
	s.state.SetUserProfile(profile)

	if profile.InHousehold() {
		household, err := s.stores.Households.GetByID(ctx, *profile.HouseholdID)
		if err != nil {
			return res, err
		}
		if household == nil {
			s.logger.Warn("clearing dangling household reference", "user_id", p.ID, "household_id", *profile.HouseholdID)
			if err := s.stores.Users.SetHousehold(ctx, p.ID, nil); err != nil {
				return res, err
			}
			profile.HouseholdID = nil
			s.state.SetUserProfile(profile)
			res.Healed = true
		} else {
			s.state.SetHousehold(household)
			res.Household = household
		}
	}

	res.Profile = profile
	return res, nil
}

// UpdateProfile renames the signed-in user in both the profile document and
// the identity service.
func (s *Session) UpdateProfile(ctx context.Context, name string) (*model.UserProfile, error) {
	const op = "update profile"
	p, err := s.requirePrincipal()
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if err := checkForm(ProfileForm, map[string]any{"name": name}); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	if _, err := s.ensureProfile(ctx, p); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if err := s.stores.Users.UpdateName(ctx, p.ID, name); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if err := s.identity.UpdateDisplayName(ctx, name); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	profile, err := s.stores.Users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	s.state.SetUserProfile(profile)
	s.fallback.Store(false)
	s.bus.Success("Profile updated successfully!")
	return profile.Clone(), nil
}

// SignOut signs the principal out; the change listener clears the cache.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.identity.SignOut(ctx); err != nil {
		return s.fail(ctx, "sign out", err)
	}
	return nil
}
