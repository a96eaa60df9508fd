// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/users/internal/user/domain"
	appValidation "github.com/allisson/users/internal/validation"
)

// validEmail applies the same normalization and pattern as the domain Email type.
var validEmail = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := domain.NewEmail(s)
		return err == nil
	},
	validation.NewError("validation_email", "email must be valid"),
)

// validCPF accepts any input that still has exactly 11 digits once separators are stripped.
var validCPF = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := domain.NewTaxID(s)
		return err == nil
	},
	validation.NewError("validation_cpf", "CPF must be valid"),
)

// CreateUserRequest represents the API request for user registration
type CreateUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	CPF        string `json:"cpf"`
	Profession string `json:"profession"`
}

// Validate checks every field and reports all violations at once. Lengths are
// counted in runes after trimming, as the values are stored trimmed.
func (r *CreateUserRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank.Error("name is required"),
			appValidation.TrimmedRuneLength(2, domain.MaxNameLength).Error("name must be between 2 and 100 chars"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank.Error("email is required"),
			appValidation.TrimmedRuneLength(0, domain.MaxEmailLength).Error("email must be at most 120 chars"),
			validEmail,
		),
		validation.Field(&r.CPF,
			validation.Required.Error("cpf is required"),
			appValidation.NotBlank.Error("cpf is required"),
			validCPF,
		),
		validation.Field(&r.Profession,
			validation.Required.Error("profession is required"),
			appValidation.NotBlank.Error("profession is required"),
			// Minimum is 3; older messages said 2.
			appValidation.TrimmedRuneLength(3, domain.MaxProfessionLength).Error("profession must be between 3 and 100 chars"),
		),
	)
	return appValidation.WrapValidationError(err)
}
