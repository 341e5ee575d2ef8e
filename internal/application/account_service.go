package application

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/stockmaster/internal/domain/entity"
	repo "github.com/oksasatya/stockmaster/internal/domain/repository"
	"github.com/oksasatya/stockmaster/pkg/helpers"
	"github.com/oksasatya/stockmaster/pkg/metrics"
)

// Service orchestrates registration: Unregistered -> PendingVerification -> Verified.
type Service struct {
	Repo      repo.AccountRepository
	Validator *CredentialValidator
	OTP       *OTPIssuer
	Tokens    *helpers.TokenIssuer
	Notifier  Notifier
	Indexer   AccountIndexer // optional
	Logger    *logrus.Logger
}

func NewService(repo repo.AccountRepository, validator *CredentialValidator, otp *OTPIssuer, tokens *helpers.TokenIssuer, notifier Notifier, indexer AccountIndexer, logger *logrus.Logger) *Service {
	return &Service{
		Repo:      repo,
		Validator: validator,
		OTP:       otp,
		Tokens:    tokens,
		Notifier:  notifier,
		Indexer:   indexer,
		Logger:    logger,
	}
}

type SignupInput struct {
	LoginID  string
	Email    string
	Password string
}

// AuthResult is what a successful auth step hands back to the caller.
type AuthResult struct {
	Account        *entity.Account
	Token          string
	TokenExpiresAt time.Time
	// EmailSent is false when the verification email could not be dispatched.
	EmailSent bool
}

// Signup validates the credentials, persists a pending account with a fresh
// OTP, dispatches the code and issues a session token.
//
// A dispatch failure keeps the account; the caller can use ResendOTP.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	res, err := s.signup(ctx, in)
	metrics.Signups.WithLabelValues(metrics.Outcome(ErrorCode(err), err)).Inc()
	return res, err
}

func (s *Service) signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	loginID := strings.TrimSpace(in.LoginID)
	if err := s.Validator.Validate(loginID, in.Email, in.Password); err != nil {
		return nil, err
	}

	// Fast-path checks; the store's unique indexes are authoritative.
	if _, err := s.Repo.FindByLoginID(ctx, loginID); err == nil {
		return nil, repo.ErrDuplicateLoginID
	} else if !repo.HasCode(err, repo.CodeAccountNotFound) {
		return nil, err
	}
	if _, err := s.Repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, repo.ErrDuplicateEmail
	} else if !repo.HasCode(err, repo.CodeAccountNotFound) {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, oops.Code(CodeInternal).Wrapf(err, "hash password")
	}
	code, expiry, err := s.OTP.Issue()
	if err != nil {
		return nil, oops.Code(CodeInternal).Wrapf(err, "generate otp")
	}

	a := &entity.Account{
		LoginID:      loginID,
		Email:        in.Email,
		PasswordHash: hash,
		IsVerified:   false,
	}
	a.AttachOTP(code, expiry)
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, err
	}

	sent := s.dispatch(ctx, a.Email, code, expiry)
	if !sent && s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"login_id": a.LoginID, "email": a.Email}).
			Warn("account created but verification email was not sent")
	}

	token, exp, err := s.Tokens.Issue(a.ID, a.LoginID, a.Email)
	if err != nil {
		return nil, oops.Code(CodeInternal).Wrapf(err, "issue token")
	}
	s.index(ctx, a)
	return &AuthResult{Account: a, Token: token, TokenExpiresAt: exp, EmailSent: sent}, nil
}

// VerifyEmail checks the supplied OTP and moves the account to Verified.
func (s *Service) VerifyEmail(ctx context.Context, email, otp string) (*AuthResult, error) {
	res, err := s.verifyEmail(ctx, email, otp)
	metrics.Verifications.WithLabelValues(metrics.Outcome(ErrorCode(err), err)).Inc()
	return res, err
}

func (s *Service) verifyEmail(ctx context.Context, email, otp string) (*AuthResult, error) {
	if email == "" || otp == "" {
		return nil, ErrVerifyFieldsRequired
	}
	a, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if a.IsVerified {
		return nil, repo.ErrAlreadyVerified
	}
	if err := s.OTP.Validate(a, otp); err != nil {
		return nil, err
	}
	verified, err := s.Repo.MarkVerified(ctx, email)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.Tokens.Issue(verified.ID, verified.LoginID, verified.Email)
	if err != nil {
		return nil, oops.Code(CodeInternal).Wrapf(err, "issue token")
	}
	s.index(ctx, verified)
	return &AuthResult{Account: verified, Token: token, TokenExpiresAt: exp}, nil
}

// ResendOTP replaces the pending code of an unverified account and sends it.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	a, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if a.IsVerified {
		return repo.ErrAlreadyVerified
	}
	code, expiry, err := s.OTP.Issue()
	if err != nil {
		return oops.Code(CodeInternal).Wrapf(err, "generate otp")
	}
	if err := s.Repo.ReplaceOTP(ctx, email, code, expiry); err != nil {
		return err
	}
	if !s.dispatch(ctx, email, code, expiry) {
		return oops.Code(CodeNotifyFailed).With("email", email).Errorf("verification email could not be sent")
	}
	return nil
}

// Login authenticates by login id and password. Unverified accounts may log in.
func (s *Service) Login(ctx context.Context, loginID, password string) (*AuthResult, error) {
	res, err := s.login(ctx, loginID, password)
	metrics.Logins.WithLabelValues(metrics.Outcome(ErrorCode(err), err)).Inc()
	return res, err
}

func (s *Service) login(ctx context.Context, loginID, password string) (*AuthResult, error) {
	loginID = strings.TrimSpace(loginID)
	if loginID == "" || password == "" {
		return nil, ErrLoginFieldsRequired
	}
	a, err := s.Repo.FindByLoginID(ctx, loginID)
	if err != nil {
		if repo.HasCode(err, repo.CodeAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	token, exp, err := s.Tokens.Issue(a.ID, a.LoginID, a.Email)
	if err != nil {
		return nil, oops.Code(CodeInternal).Wrapf(err, "issue token")
	}
	return &AuthResult{Account: a, Token: token, TokenExpiresAt: exp}, nil
}

// Profile returns the account behind a session token.
func (s *Service) Profile(ctx context.Context, accountID string) (*entity.Account, error) {
	return s.Repo.FindByID(ctx, accountID)
}

// SearchAccounts queries the account directory; empty when no indexer is configured.
func (s *Service) SearchAccounts(ctx context.Context, q string, size int) ([]entity.Account, error) {
	if s.Indexer == nil {
		return []entity.Account{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	return s.Indexer.Search(ctx, q, size)
}

func (s *Service) dispatch(ctx context.Context, to, code string, expiry time.Time) bool {
	if err := s.Notifier.SendOTP(ctx, to, code, expiry); err != nil {
		metrics.OTPDispatches.WithLabelValues("failed").Inc()
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("email", to).Error("send verification email failed")
		}
		return false
	}
	metrics.OTPDispatches.WithLabelValues("sent").Inc()
	return true
}

func (s *Service) index(ctx context.Context, a *entity.Account) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.Index(ctx, a); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("account_id", a.ID).Warn("account index failed")
	}
}
