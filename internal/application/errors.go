package application

import (
	"github.com/samber/oops"
)

// Error codes raised by the registration service. Store codes live in
// the repository package.
const (
	CodeRequired           = "VALIDATION_REQUIRED"
	CodeLoginIDLength      = "VALIDATION_LOGIN_ID"
	CodeEmailFormat        = "VALIDATION_EMAIL"
	CodePasswordPolicy     = "VALIDATION_PASSWORD"
	CodeOTPNotPending      = "OTP_NOT_PENDING"
	CodeOTPInvalid         = "OTP_INVALID"
	CodeOTPExpired         = "OTP_EXPIRED"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeNotifyFailed       = "OTP_DISPATCH_FAILED"
	CodeInternal           = "INTERNAL"
)

var (
	ErrSignupFieldsRequired = oops.Code(CodeRequired).Errorf("All fields are required")
	ErrVerifyFieldsRequired = oops.Code(CodeRequired).Errorf("Email and OTP are required")
	ErrEmailRequired        = oops.Code(CodeRequired).Errorf("Email is required")
	ErrLoginFieldsRequired  = oops.Code(CodeRequired).Errorf("Login ID and password are required")
	ErrLoginIDLength        = oops.Code(CodeLoginIDLength).Errorf("Login ID must be 6–12 characters")
	ErrEmailFormat          = oops.Code(CodeEmailFormat).Errorf("Please provide a valid email address")
	ErrNoOTPPending         = oops.Code(CodeOTPNotPending).Errorf("No verification code pending")
	ErrInvalidOTP           = oops.Code(CodeOTPInvalid).Errorf("Invalid OTP")
	ErrOTPExpired           = oops.Code(CodeOTPExpired).Errorf("OTP expired")
	ErrInvalidCredentials   = oops.Code(CodeInvalidCredentials).Errorf("Invalid credentials")
)

// ErrorCode returns the oops code carried by err, or "" for plain errors.
func ErrorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	return oopsErr.Code()
}
