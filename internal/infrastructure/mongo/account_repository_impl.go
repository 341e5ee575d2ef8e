package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/stockmaster/internal/domain/entity"
	"github.com/oksasatya/stockmaster/internal/domain/repository"
)

// Unique index names; duplicate-key errors are attributed by these.
const (
	loginIDIndex = "loginId_1"
	emailIndex   = "email_1"
)

// accountDocument keeps the field names of the original "users" collection.
type accountDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	LoginID        string             `bson:"loginId"`
	Email          string             `bson:"email"`
	Password       string             `bson:"password"`
	IsVerified     bool               `bson:"isVerified"`
	EmailOTP       *string            `bson:"emailOtp,omitempty"`
	EmailOTPExpiry *time.Time         `bson:"emailOtpExpiry,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d *accountDocument) toEntity() *entity.Account {
	a := &entity.Account{
		ID:           d.ID.Hex(),
		LoginID:      d.LoginID,
		Email:        d.Email,
		PasswordHash: d.Password,
		IsVerified:   d.IsVerified,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.EmailOTP != nil && d.EmailOTPExpiry != nil {
		a.AttachOTP(*d.EmailOTP, *d.EmailOTPExpiry)
	}
	return a
}

type AccountRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewAccountRepository(db *mongo.Database, collection string) *AccountRepository {
	return NewAccountRepositoryFromCollection(db.Collection(collection))
}

func NewAccountRepositoryFromCollection(coll *mongo.Collection) *AccountRepository {
	return &AccountRepository{coll: coll, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureIndexes creates the unique indexes on loginId and email.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "loginId", Value: 1}}, Options: options.Index().SetName(loginIDIndex).SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(emailIndex).SetUnique(true)},
	})
	if err != nil {
		return oops.Code(repository.CodeStoreFailed).Wrapf(err, "create account indexes")
	}
	return nil
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	now := r.now()
	doc := accountDocument{
		ID:             primitive.NewObjectID(),
		LoginID:        a.LoginID,
		Email:          a.Email,
		Password:       a.PasswordHash,
		IsVerified:     a.IsVerified,
		EmailOTP:       a.EmailOTP,
		EmailOTPExpiry: a.EmailOTPExpiry,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateKeyError(err)
		}
		return oops.Code(repository.CodeStoreFailed).With("login_id", a.LoginID).Wrapf(err, "insert account")
	}
	a.ID = doc.ID.Hex()
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByLoginID(ctx context.Context, loginID string) (*entity.Account, error) {
	return r.findOne(ctx, bson.M{"loginId": loginID})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// MarkVerified flips isVerified and unsets both OTP fields in a single
// conditional update, so a concurrent second verification cannot succeed.
func (r *AccountRepository) MarkVerified(ctx context.Context, email string) (*entity.Account, error) {
	update := bson.M{
		"$set":   bson.M{"isVerified": true, "updatedAt": r.now()},
		"$unset": bson.M{"emailOtp": "", "emailOtpExpiry": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc accountDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"email": email, "isVerified": false}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.unverifiedMiss(ctx, email)
	}
	if err != nil {
		return nil, oops.Code(repository.CodeStoreFailed).With("email", email).Wrapf(err, "mark verified")
	}
	return doc.toEntity(), nil
}

func (r *AccountRepository) ReplaceOTP(ctx context.Context, email, code string, expiry time.Time) error {
	update := bson.M{"$set": bson.M{"emailOtp": code, "emailOtpExpiry": expiry, "updatedAt": r.now()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email, "isVerified": false}, update)
	if err != nil {
		return oops.Code(repository.CodeStoreFailed).With("email", email).Wrapf(err, "replace otp")
	}
	if res.MatchedCount == 0 {
		return r.unverifiedMiss(ctx, email)
	}
	return nil
}

func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*entity.Account, error) {
	var doc accountDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrAccountNotFound
	}
	if err != nil {
		return nil, oops.Code(repository.CodeStoreFailed).Wrapf(err, "find account")
	}
	return doc.toEntity(), nil
}

// unverifiedMiss explains why a conditional update on an unverified account matched nothing.
func (r *AccountRepository) unverifiedMiss(ctx context.Context, email string) error {
	if _, err := r.FindByEmail(ctx, email); err != nil {
		return err
	}
	return repository.ErrAlreadyVerified
}

func duplicateKeyError(err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if strings.Contains(e.Message, emailIndex) {
				return repository.ErrDuplicateEmail
			}
		}
	}
	if strings.Contains(err.Error(), emailIndex) {
		return repository.ErrDuplicateEmail
	}
	return repository.ErrDuplicateLoginID
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
