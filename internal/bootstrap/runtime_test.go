package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"agora/internal/config"
	"agora/internal/models"
	"agora/internal/service"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSystemActor_CreatesAdmin(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureSystemActor(ctx, db))
	require.NoError(t, EnsureSystemActor(ctx, db))

	var actor models.User
	require.NoError(t, db.First(&actor, models.SystemActorID).Error)
	assert.True(t, actor.IsAdmin)
	assert.Equal(t, "system", actor.Username)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureSystemActor_RestoresRole(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, db, "founder", false)
	require.Equal(t, models.SystemActorID, existing.ID)

	require.NoError(t, EnsureSystemActor(ctx, db))

	var actor models.User
	require.NoError(t, db.First(&actor, models.SystemActorID).Error)
	assert.True(t, actor.IsAdmin)
	assert.Equal(t, "founder", actor.Username)
}

func TestNewRuntime_WiresBlockedTerms(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	require.NoError(t, EnsureSystemActor(ctx, db))

	path := filepath.Join(t.TempDir(), "blocked.yml")
	require.NoError(t, os.WriteFile(path, []byte("blocked_terms:\n  - viagra\n"), 0o600))

	rt, err := NewRuntime(db, nil, &config.Config{
		BlockedTermsFile:   path,
		ThreadPointReward:  5,
		ThreadExcerptRunes: 200,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"viagra"}, rt.BlockedTerms)

	thread, err := rt.Threads.CreateThread(ctx, service.CreateThreadInput{
		Actor: service.SystemActor(),
		Title: "buy viagra now",
	})
	require.NoError(t, err)
	assert.Equal(t, "buy  now", thread.Title)
}

func TestNewRuntime_MissingBlockedTermsFile(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := NewRuntime(db, nil, &config.Config{BlockedTermsFile: "/nonexistent/blocked.yml"})
	assert.Error(t, err)
}
