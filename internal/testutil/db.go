// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agora/internal/database"
	"agora/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory database with the schema applied.
// A single connection keeps every query on the same memory database.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: database.NewGormLogger(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// CreateUser inserts an activated user.
func CreateUser(t testing.TB, db *gorm.DB, username string, admin bool) *models.User {
	t.Helper()

	now := time.Now()
	user := &models.User{
		Username:    username,
		Email:       fmt.Sprintf("%s@example.com", username),
		Password:    "hashed",
		IsAdmin:     admin,
		ActivatedAt: &now,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateThread inserts a thread row directly, bypassing the coordinator.
func CreateThread(t testing.TB, db *gorm.DB, userID uint, title string, publishedAt *time.Time) *models.Thread {
	t.Helper()

	thread := &models.Thread{UserID: userID, Title: title, PublishedAt: publishedAt}
	require.NoError(t, db.Create(thread).Error)
	return thread
}
