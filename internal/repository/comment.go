package repository

import (
	"context"
	"errors"

	"agora/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByThread(ctx context.Context, threadID uint) ([]*models.Comment, error)
	CountByThread(ctx context.Context, threadID uint) (int64, error)
	LatestByThread(ctx context.Context, threadID uint) (*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByThread(ctx context.Context, threadID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("thread_id = ?", threadID).
		Order("created_at desc").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) CountByThread(ctx context.Context, threadID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("thread_id = ?", threadID).
		Count(&count).Error
	return count, err
}

// LatestByThread returns the newest live comment with its author, or nil.
func (r *commentRepository) LatestByThread(ctx context.Context, threadID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("thread_id = ?", threadID).
		Order("created_at DESC").
		Order("id DESC").
		Take(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
