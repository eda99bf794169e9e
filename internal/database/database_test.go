package database

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"agora/internal/config"
	"agora/internal/models"
	"agora/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestDSN_DefaultsSSLMode(t *testing.T) {
	cfg := &config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "agora"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=agora sslmode=disable", DSN(cfg))
}

func TestMigrate_CreatesThreadTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: NewGormLogger(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, Migrate(context.Background(), db))

	for _, model := range []interface{}{&models.Thread{}, &models.ThreadContent{}, &models.ThreadSubscription{}, &models.ActivityLog{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}
	assert.True(t, db.Migrator().HasColumn(&models.Thread{}, "cache"))
}

func TestPersistentModels_IncludesThreadRelations(t *testing.T) {
	var found int
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Thread, *models.ThreadContent, *models.Comment:
			found++
		}
	}
	require.Equal(t, 3, found)
}

func TestQueryLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	observability.Setup(&buf, "debug")
	t.Cleanup(func() { observability.Setup(os.Stdout, "info") })

	sql := func() (string, int64) { return `SELECT * FROM "threads"`, 0 }
	ctx := context.Background()

	warn := NewGormLogger(logger.Warn)
	warn.Trace(ctx, time.Now(), sql, nil)
	assert.Empty(t, buf.String(), "plain queries stay quiet below logger.Info")

	warn.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	warn.Trace(ctx, time.Now(), sql, errors.New("deadlock detected"))
	assert.Contains(t, buf.String(), `"msg":"query failed"`)
	assert.Contains(t, buf.String(), "deadlock detected")

	buf.Reset()
	warn.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), `"msg":"slow query"`)

	buf.Reset()
	NewGormLogger(logger.Info).LogMode(logger.Silent).Trace(ctx, time.Now(), sql, errors.New("x"))
	assert.Empty(t, buf.String())
}
