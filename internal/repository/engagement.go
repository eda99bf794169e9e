package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository reads the like/favorite/subscription relations that feed
// the thread cache, and maintains the subscription set.
type EngagementRepository interface {
	CountLikes(ctx context.Context, threadID uint) (int64, error)
	CountFavorites(ctx context.Context, threadID uint) (int64, error)
	CountSubscriptions(ctx context.Context, threadID uint) (int64, error)
	Like(ctx context.Context, userID, threadID uint) error
	Favorite(ctx context.Context, userID, threadID uint) error
	Subscribe(ctx context.Context, userID, threadID uint) error
	IsSubscribed(ctx context.Context, userID, threadID uint) (bool, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new EngagementRepository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) count(ctx context.Context, model interface{}, threadID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).Where("thread_id = ?", threadID).Count(&count).Error
	return count, err
}

func (r *engagementRepository) CountLikes(ctx context.Context, threadID uint) (int64, error) {
	return r.count(ctx, &models.ThreadLike{}, threadID)
}

func (r *engagementRepository) CountFavorites(ctx context.Context, threadID uint) (int64, error) {
	return r.count(ctx, &models.ThreadFavorite{}, threadID)
}

func (r *engagementRepository) CountSubscriptions(ctx context.Context, threadID uint) (int64, error) {
	return r.count(ctx, &models.ThreadSubscription{}, threadID)
}

// insertOnce inserts row unless the (user_id, thread_id) pair already exists.
func (r *engagementRepository) insertOnce(ctx context.Context, row interface{}) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
	if IsUniqueViolation(err) {
		return nil
	}
	return err
}

func (r *engagementRepository) Like(ctx context.Context, userID, threadID uint) error {
	return r.insertOnce(ctx, &models.ThreadLike{UserID: userID, ThreadID: threadID})
}

func (r *engagementRepository) Favorite(ctx context.Context, userID, threadID uint) error {
	return r.insertOnce(ctx, &models.ThreadFavorite{UserID: userID, ThreadID: threadID})
}

// Subscribe adds the user to the thread's notification set. Repeated calls are no-ops.
func (r *engagementRepository) Subscribe(ctx context.Context, userID, threadID uint) error {
	return r.insertOnce(ctx, &models.ThreadSubscription{UserID: userID, ThreadID: threadID})
}

func (r *engagementRepository) IsSubscribed(ctx context.Context, userID, threadID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ThreadSubscription{}).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
