package service

import (
	"context"
	"fmt"
	"time"

	"agora/internal/models"
)

// LatestThreadFinder looks up a user's most recently created thread.
type LatestThreadFinder interface {
	LatestByUser(ctx context.Context, userID uint) (*models.Thread, error)
}

// ThrottleGuard enforces a cooldown between two thread creations by the same
// user. The read and the later insert are not serialized, so two concurrent
// creations can both pass.
type ThrottleGuard struct {
	threads  LatestThreadFinder
	cooldown time.Duration
	now      func() time.Time
}

func NewThrottleGuard(threads LatestThreadFinder, cooldown time.Duration) *ThrottleGuard {
	return &ThrottleGuard{
		threads:  threads,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Check returns RATE_LIMITED when the user's last thread is younger than the
// cooldown. System writes and a zero cooldown are never throttled.
func (g *ThrottleGuard) Check(ctx context.Context, userID uint, system bool) error {
	if system || g.cooldown <= 0 {
		return nil
	}

	last, err := g.threads.LatestByUser(ctx, userID)
	if err != nil {
		return models.NewPersistenceError(err)
	}
	if last == nil {
		return nil
	}

	elapsed := g.now().Sub(last.CreatedAt)
	if elapsed >= g.cooldown {
		return nil
	}

	wait := (g.cooldown - elapsed).Round(time.Second)
	if wait < time.Second {
		wait = time.Second
	}
	return models.NewRateLimitedError(fmt.Sprintf(
		"You are creating threads too quickly. Please wait %s before posting again.", wait,
	))
}
