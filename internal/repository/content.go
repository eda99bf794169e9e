package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentRepository stores the single active body of each thread.
type ContentRepository interface {
	Upsert(ctx context.Context, content *models.ThreadContent) error
	GetByThread(ctx context.Context, threadID uint) (*models.ThreadContent, error)
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new ContentRepository
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

// Upsert inserts the body or replaces the existing one for the same thread.
func (r *contentRepository) Upsert(ctx context.Context, content *models.ThreadContent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "markdown", "updated_at"}),
		}).
		Create(content).Error
}

func (r *contentRepository) GetByThread(ctx context.Context, threadID uint) (*models.ThreadContent, error) {
	var content models.ThreadContent
	if err := r.db.WithContext(ctx).Where("thread_id = ?", threadID).Take(&content).Error; err != nil {
		return nil, err
	}
	return &content, nil
}
