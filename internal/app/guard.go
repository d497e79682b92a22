package app

import "context"

// VerifyAndRepair brings the cached profile and household back in line with
// the signed-in principal. It returns false when nobody is signed in or the
// repair failed, and true when the state is consistent. Failures are logged,
// never returned.
func (s *Session) VerifyAndRepair(ctx context.Context) bool {
	p := s.identity.CurrentPrincipal()
	if p == nil {
		return false
	}

	profile := s.state.UserProfile()
	if profile == nil || profile.ID != p.ID || s.fallback.Load() {
		res := s.LoadProfile(ctx, *p)
		return !res.Fallback
	}

	if !profile.InHousehold() {
		if s.state.Household() != nil {
			s.state.SetHousehold(nil)
		}
		return true
	}

	if cached := s.state.Household(); cached != nil && cached.ID == *profile.HouseholdID {
		return true
	}

	household, err := s.stores.Households.GetByID(ctx, *profile.HouseholdID)
	if err != nil {
		s.logger.Warn("repair: fetch household", "household_id", *profile.HouseholdID, "error", err)
		return false
	}
	if household == nil {
		s.logger.Warn("repair: clearing dangling household reference", "user_id", p.ID, "household_id", *profile.HouseholdID)
		if err := s.stores.Users.SetHousehold(ctx, p.ID, nil); err != nil {
			s.logger.Warn("repair: clear household reference", "error", err)
			return false
		}
		profile.HouseholdID = nil
		s.state.SetUserProfile(profile)
		s.state.SetHousehold(nil)
		return true
	}
	s.state.SetHousehold(household)
	return true
}
