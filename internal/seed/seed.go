// Package seed provides helpers to create demo data for the application
// database. Threads and comments go through the regular services so every
// seeded row looks like one a user produced.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agora/internal/database"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Options controls how much data a run produces.
type Options struct {
	NumUsers          int
	NumThreads        int
	CommentsPerThread int
	// Seed makes the generated content reproducible; 0 picks a random seed.
	Seed int64
}

// Seeder creates users, threads and engagement.
type Seeder struct {
	db       *gorm.DB
	store    repository.Store
	threads  *service.ThreadCoordinator
	comments *service.CommentService
	faker    *gofakeit.Faker
}

func NewSeeder(db *gorm.DB, threads *service.ThreadCoordinator, comments *service.CommentService, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		db:       db,
		store:    repository.NewStore(db),
		threads:  threads,
		comments: comments,
		faker:    gofakeit.New(seed),
	}
}

// Run seeds users, threads and engagement in that order.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	users, err := s.SeedUsers(ctx, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	slog.InfoContext(ctx, "seeded users", "count", len(users))

	threads, err := s.SeedThreads(ctx, users, opts.NumThreads)
	if err != nil {
		return fmt.Errorf("failed to create threads: %w", err)
	}
	slog.InfoContext(ctx, "seeded threads", "count", len(threads))

	if err := s.SeedEngagement(ctx, users, threads, opts.CommentsPerThread); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}
	slog.InfoContext(ctx, "seeded engagement", "comments_per_thread", opts.CommentsPerThread)
	return nil
}

// SeedUsers creates n activated users; roughly one in twenty is banned.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		activated := time.Now().Add(-time.Duration(s.faker.Number(1, 90*24)) * time.Hour)
		name := fmt.Sprintf("%s%d", strings.ToLower(s.faker.Username()), i)
		user := &models.User{
			Username:    name,
			Email:       name + "@example.com",
			Password:    string(hashed),
			ActivatedAt: &activated,
		}
		if s.faker.Number(1, 20) == 1 {
			banned := time.Now()
			user.BannedAt = &banned
		}
		if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedThreads creates n threads by random authors. Seeding is not an
// interactive request, so the throttle does not apply. Some threads stay
// drafts and some are pinned or featured by the system actor.
func (s *Seeder) SeedThreads(ctx context.Context, users []*models.User, n int) ([]*models.Thread, error) {
	if len(users) == 0 {
		return nil, nil
	}

	threads := make([]*models.Thread, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		body := "<p>" + s.faker.Paragraph(2, 4, 12, "</p><p>") + "</p>"
		thread, err := s.threads.CreateThread(ctx, service.CreateThreadInput{
			Actor:   service.Actor{UserID: author.ID, System: true},
			Title:   strings.TrimSuffix(s.faker.Sentence(6), "."),
			Body:    &body,
			IsDraft: s.faker.Number(1, 10) == 1,
		})
		if err != nil {
			return nil, err
		}

		if flags := s.moderationFlags(); len(flags) > 0 {
			thread, err = s.threads.UpdateThread(ctx, service.UpdateThreadInput{
				Actor:    service.SystemActor(),
				ThreadID: thread.ID,
				IsDraft:  thread.IsDraft(),
				Flags:    flags,
			})
			if err != nil {
				return nil, err
			}
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

func (s *Seeder) moderationFlags() map[string]bool {
	flags := map[string]bool{}
	if s.faker.Number(1, 10) == 1 {
		flags[models.FieldPinnedAt] = true
	}
	if s.faker.Number(1, 8) == 1 {
		flags[models.FieldExcellentAt] = true
	}
	return flags
}

// SeedEngagement adds up to perThread comments, plus likes and favorites,
// to every thread.
func (s *Seeder) SeedEngagement(ctx context.Context, users []*models.User, threads []*models.Thread, perThread int) error {
	if len(users) == 0 {
		return nil
	}
	engagement := s.store.Engagement()

	for _, thread := range threads {
		comments := 0
		if perThread > 0 {
			comments = s.faker.Number(0, perThread)
		}
		for i := 0; i < comments; i++ {
			author := users[s.faker.Number(0, len(users)-1)]
			if _, err := s.comments.CreateComment(ctx, service.CreateCommentInput{
				UserID:   author.ID,
				ThreadID: thread.ID,
				Content:  s.faker.Sentence(s.faker.Number(4, 20)),
			}); err != nil {
				if models.IsCode(err, models.CodeForbidden) {
					break
				}
				return err
			}
		}

		for _, u := range users {
			if s.faker.Number(1, 3) == 1 {
				if err := engagement.Like(ctx, u.ID, thread.ID); err != nil {
					return err
				}
			}
			if s.faker.Number(1, 6) == 1 {
				if err := engagement.Favorite(ctx, u.ID, thread.ID); err != nil {
					return err
				}
			}
		}

		if _, err := s.threads.RefreshCache(ctx, thread.ID); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll removes every row of the thread schema.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	slog.InfoContext(ctx, "clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.WithContext(ctx).Exec(`TRUNCATE TABLE activity_logs, thread_subscriptions, thread_favorites, thread_likes, comments, thread_contents, threads, users RESTART IDENTITY CASCADE`).Error
	}

	tables := database.PersistentModels()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.WithContext(ctx).
			Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().
			Delete(tables[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
