package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// UserRepository exposes the parts of a user the thread lifecycle needs.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	IsAdmin(ctx context.Context, id uint) (bool, error)
	AddPoints(ctx context.Context, id uint, points int64) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) IsAdmin(ctx context.Context, id uint) (bool, error) {
	var admin bool
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Select("is_admin").
		Scan(&admin).Error
	return admin, err
}

// AddPoints increments the point counter in place.
func (r *userRepository) AddPoints(ctx context.Context, id uint, points int64) error {
	if points == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("points", gorm.Expr("points + ?", points)).Error
}
