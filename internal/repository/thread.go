package repository

import (
	"context"
	"errors"

	"agora/internal/models"
	"agora/internal/observability"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// threadColumns are the columns a save may write. The cache column is owned
// by the cache aggregator and never written by a regular save.
var threadColumns = []string{
	"title",
	models.FieldExcellentAt,
	models.FieldPinnedAt,
	models.FieldFrozenAt,
	models.FieldBannedAt,
	models.FieldPublishedAt,
}

// ThreadRepository defines the interface for thread data operations
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error
	GetByID(ctx context.Context, id uint) (*models.Thread, error)
	Update(ctx context.Context, thread *models.Thread) error
	Delete(ctx context.Context, id uint) error
	LatestByUser(ctx context.Context, userID uint) (*models.Thread, error)
	ListPublished(ctx context.Context, limit, offset int) ([]*models.Thread, error)
	ListIDs(ctx context.Context, afterID uint, limit int) ([]uint, error)
	SetCache(ctx context.Context, id uint, snapshot models.ThreadCache) error
}

type threadRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewThreadRepository creates a new thread repository
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db, log: observability.NewRepoLogger("threads")}
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(thread).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": thread.ID, "user_id": thread.UserID})
	return nil
}

func (r *threadRepository) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Content").
		First(&thread, id).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) Update(ctx context.Context, thread *models.Thread) error {
	err := r.db.WithContext(ctx).
		Model(thread).
		Omit(clause.Associations).
		Select(threadColumns).
		Updates(thread).Error
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return err
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": thread.ID})
	return nil
}

// Delete tombstones the thread; the row stays for history and the throttle.
func (r *threadRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Thread{}, id).Error; err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

// LatestByUser returns the user's most recently created thread, tombstoned
// ones included, or nil if the user never created one.
func (r *threadRepository) LatestByUser(ctx context.Context, userID uint) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Take(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// Published restricts a query to threads visible to everyone: published, not
// banned, written by an activated and unbanned author.
func Published(db *gorm.DB) *gorm.DB {
	activeAuthors := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.User{}).
		Select("id").
		Where("activated_at IS NOT NULL AND banned_at IS NULL")
	return db.
		Where("threads.published_at IS NOT NULL").
		Where("threads.banned_at IS NULL").
		Where("threads.user_id IN (?)", activeAuthors)
}

func (r *threadRepository) ListPublished(ctx context.Context, limit, offset int) ([]*models.Thread, error) {
	var threads []*models.Thread
	err := r.db.WithContext(ctx).
		Scopes(Published).
		Preload("User").
		Order("CASE WHEN threads.pinned_at IS NULL THEN 1 ELSE 0 END").
		Order("threads.published_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	return threads, err
}

// ListIDs pages through live thread ids in ascending order.
func (r *threadRepository) ListIDs(ctx context.Context, afterID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Thread{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// SetCache overwrites the snapshot column only, without touching updated_at.
func (r *threadRepository) SetCache(ctx context.Context, id uint, snapshot models.ThreadCache) error {
	err := r.db.WithContext(ctx).
		Model(&models.Thread{}).
		Where("id = ?", id).
		UpdateColumn("cache", datatypes.NewJSONType(models.NormalizeThreadCache(snapshot))).Error
	if err != nil {
		r.log.LogError(ctx, err, "set_cache")
		return err
	}
	return nil
}
