package application

import (
	"context"
	"time"

	"github.com/oksasatya/stockmaster/internal/domain/entity"
)

// Notifier delivers a verification code out-of-band.
type Notifier interface {
	SendOTP(ctx context.Context, to, code string, expiresAt time.Time) error
}

// AccountIndexer feeds and queries the account directory.
type AccountIndexer interface {
	Index(ctx context.Context, a *entity.Account) error
	Search(ctx context.Context, q string, size int) ([]entity.Account, error)
}
