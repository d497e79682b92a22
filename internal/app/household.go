package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/chorequest/internal/apperr"
	"github.com/dukerupert/chorequest/internal/identity"
	"github.com/dukerupert/chorequest/internal/model"
)

// CreateHousehold creates a household administered by the signed-in user
// and moves the user into it.
func (s *Session) CreateHousehold(ctx context.Context, name string) (*model.Household, error) {
	const op = "create household"
	p, err := s.requirePrincipal()
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	name = strings.TrimSpace(name)
	if err := checkForm(HouseholdForm, map[string]any{"name": name}); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	profile, err := s.ensureProfile(ctx, p)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	household, err := s.stores.Households.Create(ctx, name, p.ID)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if err := s.moveInto(ctx, profile, household); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.logger.Info("household created", "household_id", household.ID, "admin_id", p.ID)
	s.bus.Success("Household created successfully!")
	return household, nil
}

// JoinHousehold moves the signed-in user into the household whose id is
// code. An unknown code fails with apperr.ErrInvalidHouseholdCode and
// leaves the cached profile unchanged.
func (s *Session) JoinHousehold(ctx context.Context, code string) (*model.Household, error) {
	const op = "join household"
	p, err := s.requirePrincipal()
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	code = strings.TrimSpace(code)
	if err := checkForm(JoinForm, map[string]any{"code": code}); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	household, err := s.stores.Households.GetByID(ctx, code)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if household == nil {
		return nil, s.fail(ctx, op, apperr.ErrInvalidHouseholdCode)
	}

	profile, err := s.ensureProfile(ctx, p)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if err := s.moveInto(ctx, profile, household); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.logger.Info("household joined", "household_id", household.ID, "user_id", p.ID)
	s.bus.Success(fmt.Sprintf("Welcome to %s!", household.Name))
	return household, nil
}

// RenameHousehold renames the signed-in user's household.
func (s *Session) RenameHousehold(ctx context.Context, name string) (*model.Household, error) {
	const op = "rename household"
	_, householdID, err := s.requireHousehold()
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	name = strings.TrimSpace(name)
	if err := checkForm(HouseholdForm, map[string]any{"name": name}); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	household, err := s.stores.Households.Update(ctx, householdID, name)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if household == nil {
		return nil, s.fail(ctx, op, apperr.ErrInvalidHouseholdCode)
	}
	s.state.SetHousehold(household)
	s.bus.Success("Household renamed.")
	return household, nil
}

// moveInto persists the household reference, caches the profile and
// household, and refreshes the task list.
func (s *Session) moveInto(ctx context.Context, profile *model.UserProfile, household *model.Household) error {
	if err := s.stores.Users.SetHousehold(ctx, profile.ID, &household.ID); err != nil {
		return err
	}
	profile.HouseholdID = &household.ID
	s.state.SetUserProfile(profile)
	s.state.SetHousehold(household)
	s.fallback.Store(false)
	return s.FetchTasks(ctx)
}

// HouseholdMembers lists the profiles in the signed-in user's household.
func (s *Session) HouseholdMembers(ctx context.Context) ([]model.UserProfile, error) {
	const op = "list household members"
	_, householdID, err := s.requireHousehold()
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	members, err := s.stores.Users.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return members, nil
}

// requireHousehold returns the signed-in principal and the household id of
// the cached profile.
func (s *Session) requireHousehold() (*identity.Principal, string, error) {
	p, err := s.requirePrincipal()
	if err != nil {
		return nil, "", err
	}
	profile := s.state.UserProfile()
	if profile == nil || profile.ID != p.ID || !profile.InHousehold() {
		return nil, "", apperr.ErrNoHousehold
	}
	return p, *profile.HouseholdID, nil
}
