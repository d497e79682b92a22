package app

import (
	"github.com/dukerupert/chorequest/internal/apperr"
	"github.com/dukerupert/chorequest/internal/identity"
	"github.com/dukerupert/chorequest/internal/model"
	"github.com/dukerupert/chorequest/internal/validation"
)

// Form schemas shared by the workflows and the HTTP handlers.
var (
	SignUpForm = validation.Schema{
		"name":     {validation.MaxLength(50)},
		"email":    {validation.Required().WithMessage("Email is required"), validation.Email()},
		"password": {validation.Required().WithMessage("Password is required"), validation.MinLength(identity.MinPasswordLength)},
	}

	SignInForm = validation.Schema{
		"email":    {validation.Required().WithMessage("Email is required"), validation.Email()},
		"password": {validation.Required().WithMessage("Password is required")},
	}

	ProfileForm = validation.Schema{
		"name": {validation.Required().WithMessage("Name is required"), validation.MaxLength(50)},
	}

	HouseholdForm = validation.Schema{
		"name": {validation.Required().WithMessage("Household name is required"), validation.MinLength(3), validation.MaxLength(50)},
	}

	JoinForm = validation.Schema{
		"code": {validation.Required().WithMessage("Household code is required")},
	}

	TaskForm = validation.Schema{
		"name":        {validation.Required().WithMessage("Task name is required"), validation.MinLength(3), validation.MaxLength(100)},
		"description": {validation.MaxLength(500)},
		"category": {
			validation.Required().WithMessage("Category is required"),
			validation.OneOf(model.CategoryValues()...).WithMessage("Please choose a valid category"),
		},
		"pointsValue": {validation.Required(), validation.Min(1), validation.Max(100)},
	}
)

// checkForm returns an invalid-input error carrying the field errors, or nil.
func checkForm(schema validation.Schema, values map[string]any) error {
	res := validation.Validate(values, schema)
	if res.Valid {
		return nil
	}
	return apperr.Invalid("validation failed", res.Errors)
}
