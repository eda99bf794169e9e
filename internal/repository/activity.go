package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// ActivityRepository appends activity records.
type ActivityRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	ListBySubject(ctx context.Context, subjectType string, subjectID uint) ([]*models.ActivityLog, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityRepository) ListBySubject(ctx context.Context, subjectType string, subjectID uint) ([]*models.ActivityLog, error) {
	var entries []*models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
