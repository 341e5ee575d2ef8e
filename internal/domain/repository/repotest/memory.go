// Package repotest provides an in-memory AccountRepository for tests.
package repotest

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/oksasatya/stockmaster/internal/domain/entity"
	"github.com/oksasatya/stockmaster/internal/domain/repository"
)

// MemoryAccountRepository keeps accounts in a map guarded by a mutex.
// Uniqueness is checked under the same lock as the insert.
type MemoryAccountRepository struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]*entity.Account
	// Now overrides the clock used for timestamps.
	Now func() time.Time
	// Err, when set, is returned by every operation.
	Err error
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: map[string]*entity.Account{}, Now: time.Now}
}

func (r *MemoryAccountRepository) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.accounts {
		if existing.LoginID == a.LoginID {
			return repository.ErrDuplicateLoginID
		}
	}
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.seq++
	now := r.Now()
	a.ID = strconv.Itoa(r.seq)
	a.CreatedAt = now
	a.UpdatedAt = now
	r.accounts[a.ID] = clone(a)
	return nil
}

func (r *MemoryAccountRepository) FindByID(_ context.Context, id string) (*entity.Account, error) {
	return r.find(func(a *entity.Account) bool { return a.ID == id })
}

func (r *MemoryAccountRepository) FindByLoginID(_ context.Context, loginID string) (*entity.Account, error) {
	return r.find(func(a *entity.Account) bool { return a.LoginID == loginID })
}

func (r *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	return r.find(func(a *entity.Account) bool { return a.Email == email })
}

func (r *MemoryAccountRepository) MarkVerified(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	a := r.byEmail(email)
	if a == nil {
		return nil, repository.ErrAccountNotFound
	}
	if a.IsVerified {
		return nil, repository.ErrAlreadyVerified
	}
	a.IsVerified = true
	a.ClearOTP()
	a.UpdatedAt = r.Now()
	return clone(a), nil
}

func (r *MemoryAccountRepository) ReplaceOTP(_ context.Context, email, code string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	a := r.byEmail(email)
	if a == nil {
		return repository.ErrAccountNotFound
	}
	if a.IsVerified {
		return repository.ErrAlreadyVerified
	}
	a.AttachOTP(code, expiry)
	a.UpdatedAt = r.Now()
	return nil
}

func (r *MemoryAccountRepository) Ping(context.Context) error {
	return r.Err
}

// Len returns the number of stored accounts.
func (r *MemoryAccountRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

func (r *MemoryAccountRepository) find(match func(a *entity.Account) bool) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, a := range r.accounts {
		if match(a) {
			return clone(a), nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (r *MemoryAccountRepository) byEmail(email string) *entity.Account {
	for _, a := range r.accounts {
		if a.Email == email {
			return a
		}
	}
	return nil
}

func clone(a *entity.Account) *entity.Account {
	c := *a
	if a.EmailOTP != nil {
		otp := *a.EmailOTP
		c.EmailOTP = &otp
	}
	if a.EmailOTPExpiry != nil {
		exp := *a.EmailOTPExpiry
		c.EmailOTPExpiry = &exp
	}
	return &c
}

var _ repository.AccountRepository = (*MemoryAccountRepository)(nil)
