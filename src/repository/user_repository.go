package repository

import (
	"context"
	"errors"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"errorcentral/src/database"
	"errorcentral/src/model"
)

// ErrInvalidCredentials is returned when a username/password pair does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository() *GormUserRepository {
	logger.WithField("component", "GormUserRepository").
		Info("Creating new GormUserRepository with MainDB")

	return &GormUserRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *GormUserRepository) WithDB(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByID returns the user with id, or (nil, nil) when there is none.
func (r *GormUserRepository) GetByID(
	ctx context.Context,
	id uint,
) (*model.User, error) {

	var u model.User
	res := r.db.WithContext(ctx).Limit(1).Find(&u, id)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	return &u, nil
}

func (r *GormUserRepository) GetUserByUserName(
	ctx context.Context,
	userName string,
) (*model.User, error) {

	var u model.User
	err := r.db.WithContext(ctx).
		Where("user_name = ? ", userName).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &u, nil
}

// Save creates userName with password, or resets the password when the user exists.
func (r *GormUserRepository) Save(
	ctx context.Context,
	userName string,
	password string,
) (*model.User, error) {

	userName = strings.TrimSpace(userName)
	verr := model.NewValidationError()
	if userName == "" {
		verr.Add("username", model.MsgBlank)
	}
	if password == "" {
		verr.Add("password", model.MsgBlank)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := model.User{Username: userName}
	err = r.db.WithContext(ctx).
		Where(model.User{Username: userName}).
		Assign(model.User{Password: string(hashedPassword)}).
		FirstOrCreate(&u).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":      "GormUserRepository",
			"op":        "Save",
			"user_name": userName,
		}).WithError(err).Error("Failed to save user")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "GormUserRepository",
		"op":      "Save",
		"user_id": u.ID,
	}).Info("User saved")

	return &u, nil
}

// Authenticate returns the user when password matches its stored hash.
func (r *GormUserRepository) Authenticate(
	ctx context.Context,
	userName string,
	password string,
) (*model.User, error) {

	u, err := r.GetUserByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		logger.WithField("user_id", u.ID).Warn("password mismatch")
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Delete removes a user together with every error log it reported.
func (r *GormUserRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
