package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/oksasatya/stockmaster/internal/domain/entity"
	"github.com/oksasatya/stockmaster/internal/domain/repository"
)

// Constraint names from db/migrations.
const (
	loginIDConstraint = "accounts_login_id_key"
	emailConstraint   = "accounts_email_key"
)

const accountColumns = `id::text, login_id, email, password_hash, is_verified, email_otp, email_otp_expiry, created_at, updated_at`

type AccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO accounts (login_id, email, password_hash, is_verified, email_otp, email_otp_expiry)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at, updated_at
	`, a.LoginID, a.Email, a.PasswordHash, a.IsVerified, a.EmailOTP, a.EmailOTPExpiry)

	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == emailConstraint {
				return repository.ErrDuplicateEmail
			}
			return repository.ErrDuplicateLoginID
		}
		return oops.Code(repository.CodeStoreFailed).With("login_id", a.LoginID).Wrapf(err, "insert account")
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	// id is compared as text so a malformed uuid is simply not found.
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id::text = $1`, id)
}

func (r *AccountRepository) FindByLoginID(ctx context.Context, loginID string) (*entity.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE login_id = $1`, loginID)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *AccountRepository) MarkVerified(ctx context.Context, email string) (*entity.Account, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE accounts
		SET is_verified = TRUE, email_otp = NULL, email_otp_expiry = NULL, updated_at = NOW()
		WHERE email = $1 AND is_verified = FALSE
		RETURNING `+accountColumns, email)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.unverifiedMiss(ctx, email)
	}
	if err != nil {
		return nil, oops.Code(repository.CodeStoreFailed).With("email", email).Wrapf(err, "mark verified")
	}
	return a, nil
}

func (r *AccountRepository) ReplaceOTP(ctx context.Context, email, code string, expiry time.Time) error {
	res, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET email_otp = $2, email_otp_expiry = $3, updated_at = NOW()
		WHERE email = $1 AND is_verified = FALSE
	`, email, code, expiry)
	if err != nil {
		return oops.Code(repository.CodeStoreFailed).With("email", email).Wrapf(err, "replace otp")
	}
	if res.RowsAffected() == 0 {
		return r.unverifiedMiss(ctx, email)
	}
	return nil
}

func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg string) (*entity.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrAccountNotFound
	}
	if err != nil {
		return nil, oops.Code(repository.CodeStoreFailed).Wrapf(err, "find account")
	}
	return a, nil
}

func (r *AccountRepository) unverifiedMiss(ctx context.Context, email string) error {
	if _, err := r.FindByEmail(ctx, email); err != nil {
		return err
	}
	return repository.ErrAlreadyVerified
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	var (
		otp    *string
		expiry *time.Time
	)
	if err := row.Scan(&a.ID, &a.LoginID, &a.Email, &a.PasswordHash, &a.IsVerified,
		&otp, &expiry, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if otp != nil && expiry != nil {
		a.AttachOTP(*otp, *expiry)
	}
	return a, nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
