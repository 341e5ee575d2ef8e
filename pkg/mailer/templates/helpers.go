package templates

import (
	"fmt"
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithLoginID(id string) Option { return func(d *EmailData) { d.LoginID = id } }

func WithExpiresAt(t time.Time, now time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
		d.ExpiresInText = humanMinutes(t.Sub(now))
	}
}

// Branding carries the sender identity shown in every email.
type Branding struct {
	AppName     string
	CompanyName string
	SupportURL  string
}

// NewVerifyEmailOTPData fills the verification email fields and applies opts.
func NewVerifyEmailOTPData(b Branding, email, code string, opts ...Option) map[string]any {
	d := EmailData{
		RecipientEmail: email,
		Type:           VerifyEmailOTP,
		CompanyName:    b.CompanyName,
		AppName:        b.AppName,
		SupportURL:     b.SupportURL,
		Code:           code,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return ToMap(d)
}

func humanMinutes(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
