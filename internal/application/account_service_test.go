package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/stockmaster/internal/domain/entity"
	repo "github.com/oksasatya/stockmaster/internal/domain/repository"
	"github.com/oksasatya/stockmaster/internal/domain/repository/repotest"
	"github.com/oksasatya/stockmaster/pkg/helpers"
)

type captureNotifier struct {
	mu    sync.Mutex
	to    string
	code  string
	calls int
	err   error
}

func (n *captureNotifier) SendOTP(_ context.Context, to, code string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.to, n.code = to, code
	return n.err
}

type fakeIndexer struct {
	indexed []string
	results []entity.Account
	err     error
}

func (f *fakeIndexer) Index(_ context.Context, a *entity.Account) error {
	f.indexed = append(f.indexed, a.ID)
	return f.err
}

func (f *fakeIndexer) Search(context.Context, string, int) ([]entity.Account, error) {
	return f.results, f.err
}

type fixture struct {
	svc      *Service
	repo     *repotest.MemoryAccountRepository
	notifier *captureNotifier
	indexer  *fakeIndexer
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     repotest.NewMemoryAccountRepository(),
		notifier: &captureNotifier{},
		indexer:  &fakeIndexer{},
		now:      time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	otp := NewOTPIssuer(10 * time.Minute)
	otp.Now = func() time.Time { return f.now }
	tokens := helpers.NewTokenIssuer("test-secret", 7*24*time.Hour)
	f.svc = NewService(f.repo, NewCredentialValidator(9, true), otp, tokens, f.notifier, f.indexer, helpers.NewDiscardLogger())
	return f
}

func (f *fixture) signup(t *testing.T, loginID, email string) *AuthResult {
	t.Helper()
	res, err := f.svc.Signup(context.Background(), SignupInput{LoginID: loginID, Email: email, Password: "Abcdefg1!"})
	require.NoError(t, err)
	return res
}

func TestService_Signup(t *testing.T) {
	f := newFixture(t)
	res := f.signup(t, "alice01", "a@x.com")

	assert.NotEmpty(t, res.Token)
	assert.True(t, res.EmailSent)
	assert.False(t, res.Account.IsVerified)
	assert.Equal(t, "a@x.com", f.notifier.to)

	stored, err := f.repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
	require.True(t, stored.HasPendingOTP())
	assert.Equal(t, f.notifier.code, *stored.EmailOTP)
	assert.Equal(t, f.now.Add(10*time.Minute), *stored.EmailOTPExpiry)
	assert.NotEqual(t, "Abcdefg1!", stored.PasswordHash)
	assert.True(t, helpers.CompareHashAndPassword(stored.PasswordHash, "Abcdefg1!"))

	claims, err := f.svc.Tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.AccountID)
	assert.Equal(t, "alice01", claims.LoginID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, []string{stored.ID}, f.indexer.indexed)
}

func TestService_Signup_ValidationCreatesNothing(t *testing.T) {
	tests := []struct {
		name     string
		in       SignupInput
		wantCode string
	}{
		{name: "short login id", in: SignupInput{LoginID: "abc", Email: "a@x.com", Password: "Abcdefg1!"}, wantCode: CodeLoginIDLength},
		{name: "long login id", in: SignupInput{LoginID: "abcdefghijklm", Email: "a@x.com", Password: "Abcdefg1!"}, wantCode: CodeLoginIDLength},
		{name: "weak password", in: SignupInput{LoginID: "alice01", Email: "a@x.com", Password: "abcdefgh"}, wantCode: CodePasswordPolicy},
		{name: "missing fields", in: SignupInput{LoginID: "alice01"}, wantCode: CodeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Signup(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ErrorCode(err))
			assert.Equal(t, 0, f.repo.Len())
			assert.Equal(t, 0, f.notifier.calls)
		})
	}
}

func TestService_Signup_Duplicates(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice01", "a@x.com")

	_, err := f.svc.Signup(context.Background(), SignupInput{LoginID: "alice01", Email: "b@x.com", Password: "Abcdefg1!"})
	assert.Equal(t, repo.CodeDuplicateLoginID, ErrorCode(err))

	_, err = f.svc.Signup(context.Background(), SignupInput{LoginID: "bobby01", Email: "a@x.com", Password: "Abcdefg1!"})
	assert.Equal(t, repo.CodeDuplicateEmail, ErrorCode(err))

	// login id takes precedence when both collide
	_, err = f.svc.Signup(context.Background(), SignupInput{LoginID: "alice01", Email: "a@x.com", Password: "Abcdefg1!"})
	assert.Equal(t, repo.CodeDuplicateLoginID, ErrorCode(err))

	assert.Equal(t, 1, f.repo.Len())
}

func TestService_Signup_ConcurrentSameLoginID(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Signup(context.Background(), SignupInput{
				LoginID:  "alice01",
				Email:    "a" + string(rune('a'+i)) + "@x.com",
				Password: "Abcdefg1!",
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, repo.CodeDuplicateLoginID, ErrorCode(err))
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, f.repo.Len())
}

func TestService_Signup_DispatchFailureKeepsAccount(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")

	res, err := f.svc.Signup(context.Background(), SignupInput{LoginID: "alice01", Email: "a@x.com", Password: "Abcdefg1!"})
	require.NoError(t, err)
	assert.False(t, res.EmailSent)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 1, f.repo.Len())
}

func TestService_Signup_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.Err = errors.New("connection refused")
	_, err := f.svc.Signup(context.Background(), SignupInput{LoginID: "alice01", Email: "a@x.com", Password: "Abcdefg1!"})
	require.Error(t, err)
	assert.Equal(t, "", ErrorCode(err))
}

func TestService_VerifyEmail(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice01", "a@x.com")
	code := f.notifier.code

	res, err := f.svc.VerifyEmail(context.Background(), "a@x.com", code)
	require.NoError(t, err)
	assert.True(t, res.Account.IsVerified)
	assert.NotEmpty(t, res.Token)

	stored, err := f.repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.EmailOTP)
	assert.Nil(t, stored.EmailOTPExpiry)

	// the same code cannot be used twice
	_, err = f.svc.VerifyEmail(context.Background(), "a@x.com", code)
	assert.Equal(t, repo.CodeAlreadyVerified, ErrorCode(err))
}

func TestService_VerifyEmail_Failures(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.VerifyEmail(context.Background(), "a@x.com", "")
		assert.Equal(t, CodeRequired, ErrorCode(err))
		assert.EqualError(t, err, "Email and OTP are required")
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.VerifyEmail(context.Background(), "nobody@x.com", "123456")
		assert.Equal(t, repo.CodeAccountNotFound, ErrorCode(err))
	})

	t.Run("wrong otp leaves state unchanged", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "alice01", "a@x.com")
		before, _ := f.repo.FindByEmail(context.Background(), "a@x.com")

		wrong := "100000"
		if f.notifier.code == wrong {
			wrong = "100001"
		}
		_, err := f.svc.VerifyEmail(context.Background(), "a@x.com", wrong)
		assert.Equal(t, CodeOTPInvalid, ErrorCode(err))

		after, _ := f.repo.FindByEmail(context.Background(), "a@x.com")
		assert.Equal(t, before, after)
	})

	t.Run("expired otp keeps account unverified", func(t *testing.T) {
		f := newFixture(t)
		f.signup(t, "alice01", "a@x.com")
		f.now = f.now.Add(10 * time.Minute)

		_, err := f.svc.VerifyEmail(context.Background(), "a@x.com", f.notifier.code)
		assert.Equal(t, CodeOTPExpired, ErrorCode(err))

		stored, _ := f.repo.FindByEmail(context.Background(), "a@x.com")
		assert.False(t, stored.IsVerified)
		assert.True(t, stored.HasPendingOTP())
	})
}

func TestService_ResendOTP(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice01", "a@x.com")
	f.svc.OTP.Generate = func() (string, error) { return "222333", nil }
	f.now = f.now.Add(20 * time.Minute)

	require.NoError(t, f.svc.ResendOTP(context.Background(), "a@x.com"))
	assert.Equal(t, "222333", f.notifier.code)
	assert.Equal(t, 2, f.notifier.calls)

	res, err := f.svc.VerifyEmail(context.Background(), "a@x.com", "222333")
	require.NoError(t, err)
	assert.True(t, res.Account.IsVerified)

	err = f.svc.ResendOTP(context.Background(), "a@x.com")
	assert.Equal(t, repo.CodeAlreadyVerified, ErrorCode(err))
}

func TestService_ResendOTP_Failures(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, CodeRequired, ErrorCode(f.svc.ResendOTP(context.Background(), "")))
	assert.Equal(t, repo.CodeAccountNotFound, ErrorCode(f.svc.ResendOTP(context.Background(), "x@x.com")))

	f.signup(t, "alice01", "a@x.com")
	f.notifier.err = errors.New("down")
	assert.Equal(t, CodeNotifyFailed, ErrorCode(f.svc.ResendOTP(context.Background(), "a@x.com")))
}

func TestService_Login(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice01", "a@x.com")

	res, err := f.svc.Login(context.Background(), "alice01", "Abcdefg1!")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "a@x.com", res.Account.Email)

	_, err = f.svc.Login(context.Background(), "alice01", "wrong-Pass1!")
	assert.Equal(t, CodeInvalidCredentials, ErrorCode(err))

	_, err = f.svc.Login(context.Background(), "nobody1", "Abcdefg1!")
	assert.Equal(t, CodeInvalidCredentials, ErrorCode(err))

	_, err = f.svc.Login(context.Background(), "", "")
	assert.Equal(t, CodeRequired, ErrorCode(err))
}

func TestService_ProfileAndSearch(t *testing.T) {
	f := newFixture(t)
	res := f.signup(t, "alice01", "a@x.com")

	a, err := f.svc.Profile(context.Background(), res.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice01", a.LoginID)

	f.indexer.results = []entity.Account{{ID: res.Account.ID, LoginID: "alice01"}}
	found, err := f.svc.SearchAccounts(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	f.svc.Indexer = nil
	found, err = f.svc.SearchAccounts(context.Background(), "alice", 5)
	require.NoError(t, err)
	assert.Empty(t, found)
}
