package seed

import (
	"context"
	"testing"

	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/security"
	"agora/internal/service"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestSeeder(t *testing.T) (*Seeder, *gorm.DB) {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	testutil.CreateUser(t, db, "system", true)

	store := repository.NewStore(db)
	bodies := security.NewContentSanitizer(nil)
	threads := service.NewThreadCoordinator(
		store, nil, security.NewTitleSanitizer(nil), bodies, nil,
		service.CoordinatorConfig{PointReward: 5, ExcerptRunes: 200},
	)
	comments := service.NewCommentService(store, bodies, threads)
	return NewSeeder(db, threads, comments, 42), db
}

func TestSeeder_Run(t *testing.T) {
	s, db := newTestSeeder(t)
	ctx := context.Background()

	require.NoError(t, s.Run(ctx, Options{NumUsers: 4, NumThreads: 6, CommentsPerThread: 3}))

	var users, threads int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Thread{}).Count(&threads).Error)
	assert.Equal(t, int64(5), users)
	assert.Equal(t, int64(6), threads)

	var all []*models.Thread
	require.NoError(t, db.Find(&all).Error)
	for _, thread := range all {
		var comments int64
		require.NoError(t, db.Model(&models.Comment{}).Where("thread_id = ?", thread.ID).Count(&comments).Error)
		assert.Equal(t, comments, thread.Snapshot().CommentsCount, "thread %d", thread.ID)
	}

	var activities int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Count(&activities).Error)
	assert.Equal(t, int64(6), activities)
}

func TestSeeder_SeedUsersUsesDefaultPassword(t *testing.T) {
	s, _ := newTestSeeder(t)

	users, err := s.SeedUsers(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.NotEqual(t, users[0].Username, users[1].Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte(DefaultPassword)))
	assert.NotNil(t, users[0].ActivatedAt)
}

func TestClearAll(t *testing.T) {
	s, db := newTestSeeder(t)
	ctx := context.Background()
	require.NoError(t, s.Run(ctx, Options{NumUsers: 2, NumThreads: 2, CommentsPerThread: 1}))

	require.NoError(t, ClearAll(ctx, db))

	for _, model := range []interface{}{&models.User{}, &models.Thread{}, &models.Comment{}, &models.ActivityLog{}} {
		var n int64
		require.NoError(t, db.Unscoped().Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
}
