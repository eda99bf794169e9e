// Package bootstrap wires configuration, storage and services into a runtime.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"agora/internal/cache"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/repository"
	"agora/internal/security"
	"agora/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Runtime holds the long-lived dependencies shared by the commands.
type Runtime struct {
	DB           *gorm.DB
	Redis        *redis.Client
	Store        repository.Store
	Threads      *service.ThreadCoordinator
	Comments     *service.CommentService
	BlockedTerms []string
}

// InitRuntime connects to DB and Redis, ensures the system actor exists and
// builds the thread services.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureSystemActor(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to ensure system actor: %w", err)
	}

	return NewRuntime(db, r, cfg)
}

// NewRuntime builds the services on top of an open database.
func NewRuntime(db *gorm.DB, r *redis.Client, cfg *config.Config) (*Runtime, error) {
	blocked, err := security.LoadBlockedTerms(cfg.BlockedTermsFile)
	if err != nil {
		return nil, err
	}

	store := repository.NewStore(db)
	bodies := security.NewContentSanitizer(blocked)
	threads := service.NewThreadCoordinator(
		store,
		store.Users().IsAdmin,
		security.NewTitleSanitizer(blocked),
		bodies,
		notifications.NewNotifier(r),
		service.CoordinatorConfig{
			Cooldown:     cfg.ThreadCooldown,
			PointReward:  cfg.ThreadPointReward,
			ExcerptRunes: cfg.ThreadExcerptRunes,
		},
	)

	return &Runtime{
		DB:           db,
		Redis:        r,
		Store:        store,
		Threads:      threads,
		Comments:     service.NewCommentService(store, bodies, threads),
		BlockedTerms: blocked,
	}, nil
}

// EnsureSystemActor makes sure user 1 exists and is an administrator. Writes
// made outside an interactive request are attributed to it.
func EnsureSystemActor(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var actor models.User
		findErr := tx.Unscoped().First(&actor, models.SystemActorID).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			// Nobody logs in as the system actor; the password is random.
			hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash system password: %w", err)
			}
			actor = models.User{
				ID:       models.SystemActorID,
				Username: "system",
				Email:    "system@agora.local",
				Password: string(hashed),
				IsAdmin:  true,
			}
			if err := tx.Create(&actor).Error; err != nil {
				return err
			}
			slog.InfoContext(ctx, "system actor created", "user_id", actor.ID)
		case findErr != nil:
			return findErr
		case !actor.IsAdmin || actor.DeletedAt.Valid:
			if err := tx.Unscoped().Model(&models.User{}).
				Where("id = ?", models.SystemActorID).
				Updates(map[string]any{"is_admin": true, "deleted_at": nil}).Error; err != nil {
				return err
			}
		}

		// Ensure users ID sequence is not behind explicit ID insertion.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(`
				SELECT setval(
					pg_get_serial_sequence('users', 'id'),
					GREATEST((SELECT COALESCE(MAX(id), 1) FROM users), 1),
					true
				)
			`).Error; err != nil {
				return fmt.Errorf("failed to reset users sequence: %w", err)
			}
		}
		return nil
	})
}
