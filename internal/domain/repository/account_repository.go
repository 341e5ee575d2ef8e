package repository

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/oksasatya/stockmaster/internal/domain/entity"
)

// Error codes shared by every AccountRepository implementation.
const (
	CodeAccountNotFound  = "ACCOUNT_NOT_FOUND"
	CodeDuplicateLoginID = "ACCOUNT_DUPLICATE_LOGIN_ID"
	CodeDuplicateEmail   = "ACCOUNT_DUPLICATE_EMAIL"
	CodeAlreadyVerified  = "ACCOUNT_ALREADY_VERIFIED"
	CodeStoreFailed      = "ACCOUNT_STORE_FAILED"
)

var (
	ErrAccountNotFound  = oops.Code(CodeAccountNotFound).Errorf("User not found")
	ErrDuplicateLoginID = oops.Code(CodeDuplicateLoginID).Errorf("Login ID already exists")
	ErrDuplicateEmail   = oops.Code(CodeDuplicateEmail).Errorf("Email already registered")
	ErrAlreadyVerified  = oops.Code(CodeAlreadyVerified).Errorf("Email already verified")
)

// AccountRepository defines the persistence operations for accounts.
// LoginID and Email must be unique; implementations enforce this with a
// store-level index and report ErrDuplicateLoginID before ErrDuplicateEmail.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	FindByID(ctx context.Context, id string) (*entity.Account, error)
	FindByLoginID(ctx context.Context, loginID string) (*entity.Account, error)
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	// MarkVerified sets IsVerified and clears both OTP fields in one write.
	MarkVerified(ctx context.Context, email string) (*entity.Account, error)
	// ReplaceOTP attaches a fresh code to an unverified account.
	ReplaceOTP(ctx context.Context, email, code string, expiry time.Time) error
	Ping(ctx context.Context) error
}

// HasCode reports whether err is an oops error carrying code.
func HasCode(err error, code string) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == code
}
