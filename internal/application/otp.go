package application

import (
	"crypto/subtle"
	"time"

	"github.com/oksasatya/stockmaster/internal/domain/entity"
	"github.com/oksasatya/stockmaster/pkg/helpers"
)

// OTPIssuer produces six-digit codes and checks them against an account.
type OTPIssuer struct {
	TTL      time.Duration
	Now      func() time.Time
	Generate func() (string, error)
}

func NewOTPIssuer(ttl time.Duration) *OTPIssuer {
	return &OTPIssuer{TTL: ttl, Now: time.Now, Generate: helpers.GenOTPCode}
}

// Issue returns a fresh code and the moment it stops being accepted.
func (o *OTPIssuer) Issue() (string, time.Time, error) {
	code, err := o.Generate()
	if err != nil {
		return "", time.Time{}, err
	}
	return code, o.Now().Add(o.TTL), nil
}

// Validate does not mutate a. The code must match exactly and now must be
// strictly before the stored expiry.
func (o *OTPIssuer) Validate(a *entity.Account, supplied string) error {
	if !a.HasPendingOTP() {
		return ErrNoOTPPending
	}
	if subtle.ConstantTimeCompare([]byte(*a.EmailOTP), []byte(supplied)) != 1 {
		return ErrInvalidOTP
	}
	if !o.Now().Before(*a.EmailOTPExpiry) {
		return ErrOTPExpired
	}
	return nil
}
