package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/model"
)

// UserRepository defines credential persistence operations.
type UserRepository interface {
	RegisterWithPassword(ctx context.Context, email, passwordHash string) (*model.User, error)
	UpsertSocialUser(ctx context.Context, email, token string, expireAt time.Time, provider model.Provider) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FetchPasswordHash(ctx context.Context, email string) (string, error)
	FetchSocialToken(ctx context.Context, email string) (string, error)
	ClearSocialToken(ctx context.Context, email string) error
}

type userRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, now: time.Now}
}

// RegisterWithPassword inserts an app user unless the email is taken. The
// insert and the uniqueness check are one statement, so of two concurrent
// sign-ups for one email exactly one succeeds.
func (r *userRepository) RegisterWithPassword(ctx context.Context, email, passwordHash string) (*model.User, error) {
	user := &model.User{
		Email:        email,
		PasswordHash: &passwordHash,
		Provider:     model.ProviderApp,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return nil, apperrors.Dependency("database", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrDuplicateUser
	}
	return user, nil
}

// UpsertSocialUser inserts a social user or refreshes the stored token of the
// existing row. The row keeps its original id; a password left from an app
// account is cleared so only the social credential remains.
func (r *userRepository) UpsertSocialUser(ctx context.Context, email, token string, expireAt time.Time, provider model.Provider) (*model.User, error) {
	expireAt = expireAt.UTC()
	user := &model.User{
		Email:          email,
		SocialToken:    &token,
		SocialExpireAt: &expireAt,
		Provider:       provider,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: append(
				clause.AssignmentColumns([]string{"social_token", "social_expire_at", "provider", "updated_at"}),
				clause.Assignment{Column: clause.Column{Name: "password_hash"}, Value: gorm.Expr("NULL")},
			),
		}).
		Create(user).Error
	if err != nil {
		return nil, apperrors.Dependency("database", err)
	}
	return r.FindByEmail(ctx, email)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

// FetchPasswordHash returns the stored hash of an app user, or "" when the
// email is unknown or belongs to a social user.
func (r *userRepository) FetchPasswordHash(ctx context.Context, email string) (string, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Select("password_hash").
		Where("email = ? AND provider = ?", email, model.ProviderApp).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Dependency("database", err)
	}
	if user.PasswordHash == nil {
		return "", nil
	}
	return *user.PasswordHash, nil
}

// FetchSocialToken returns the stored provider token while it is unexpired,
// or "" otherwise.
func (r *userRepository) FetchSocialToken(ctx context.Context, email string) (string, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Select("social_token").
		Where("email = ? AND social_expire_at > ?", email, r.now().UTC()).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Dependency("database", err)
	}
	if user.SocialToken == nil {
		return "", nil
	}
	return *user.SocialToken, nil
}

// ClearSocialToken forgets the stored provider token.
func (r *userRepository) ClearSocialToken(ctx context.Context, email string) error {
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{"social_token": nil, "social_expire_at": nil}).Error
	return apperrors.Dependency("database", err)
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return apperrors.Dependency("database", err)
}
