package entity

import (
	"time"
)

// Account is the aggregate root for the registration domain.
// PasswordHash holds a bcrypt hash; the plain password is never stored.
//
// EmailOTP and EmailOTPExpiry are set and cleared together.
type Account struct {
	ID             string
	LoginID        string
	Email          string
	PasswordHash   string
	IsVerified     bool
	EmailOTP       *string
	EmailOTPExpiry *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPendingOTP reports whether a verification code is outstanding.
func (a *Account) HasPendingOTP() bool {
	return a.EmailOTP != nil && a.EmailOTPExpiry != nil
}

// AttachOTP sets a new pending code and its expiry as a pair.
func (a *Account) AttachOTP(code string, expiry time.Time) {
	a.EmailOTP = &code
	a.EmailOTPExpiry = &expiry
}

// ClearOTP removes the pending code and its expiry as a pair.
func (a *Account) ClearOTP() {
	a.EmailOTP = nil
	a.EmailOTPExpiry = nil
}
