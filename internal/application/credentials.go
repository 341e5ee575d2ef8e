package application

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/oksasatya/stockmaster/pkg/validation"
)

// CredentialValidator enforces the identifier and password policy.
// It stops at the first violated rule.
type CredentialValidator struct {
	v                 *validator.Validate
	strictEmail       bool
	errPasswordPolicy error
}

func NewCredentialValidator(passwordMinLength int, strictEmail bool) *CredentialValidator {
	return &CredentialValidator{
		v:           validation.New(passwordMinLength),
		strictEmail: strictEmail,
		errPasswordPolicy: oops.Code(CodePasswordPolicy).Errorf(
			"Password must include lowercase, uppercase, special char & be >%d characters", passwordMinLength-1),
	}
}

// Validate checks presence, login id length, email format (when strict) and
// password policy, in that order.
func (cv *CredentialValidator) Validate(loginID, email, password string) error {
	if strings.TrimSpace(loginID) == "" || strings.TrimSpace(email) == "" || password == "" {
		return ErrSignupFieldsRequired
	}
	if err := cv.v.Var(loginID, validation.TagLoginID); err != nil {
		return ErrLoginIDLength
	}
	if cv.strictEmail {
		if err := cv.v.Var(email, "email"); err != nil {
			return ErrEmailFormat
		}
	}
	if err := cv.v.Var(password, validation.TagPasswordPolicy); err != nil {
		return cv.errPasswordPolicy
	}
	return nil
}

// PasswordPolicyMessage is the message reported for a weak password.
func (cv *CredentialValidator) PasswordPolicyMessage() string {
	return cv.errPasswordPolicy.Error()
}
