package repo

import (
	"context"
	"errors"

	"compliance-feed/backend/app/models"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) CountByUsername(ctx context.Context, username string) (int64, error) {
	var count int64
	return count, r.db.WithContext(ctx).Model(&models.Operator{}).Where("username = ?", username).Count(&count).Error
}

func (r *UserRepository) Create(ctx context.Context, u *models.Operator) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var u models.Operator
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
