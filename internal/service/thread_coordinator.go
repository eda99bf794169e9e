package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/observability"
	"agora/internal/repository"
	"agora/internal/security"

	"go.opentelemetry.io/otel/attribute"
)

// Actor is the user a thread operation runs as. System marks writes that do
// not come from an interactive request (seeding, imports, maintenance).
type Actor struct {
	UserID uint
	System bool
}

// SystemActor returns the actor used for non-interactive writes.
func SystemActor() Actor {
	return Actor{UserID: models.SystemActorID, System: true}
}

type CreateThreadInput struct {
	Actor   Actor
	Title   string
	Body    *string
	IsDraft bool
	// Flags maps sensitive timestamp columns to whether they should be set.
	Flags map[string]bool
}

type UpdateThreadInput struct {
	Actor    Actor
	ThreadID uint
	Title    *string
	Body     *string
	IsDraft  bool
	Flags    map[string]bool
}

type DeleteThreadInput struct {
	Actor    Actor
	ThreadID uint
}

// CoordinatorConfig holds the tunables of the save pipeline.
type CoordinatorConfig struct {
	Cooldown     time.Duration
	PointReward  int64
	ExcerptRunes int
}

// EventPublisher announces committed thread changes.
type EventPublisher interface {
	PublishThreadEvent(ctx context.Context, event notifications.ThreadEvent) error
}

// ThreadCoordinator runs the create/update pipeline for threads: throttle,
// moderation, sanitization, publication, persistence, cache refresh and the
// post-save side effects, in that order.
type ThreadCoordinator struct {
	store      repository.Store
	isAdmin    func(ctx context.Context, userID uint) (bool, error)
	throttle   *ThrottleGuard
	moderation *ModerationGuard
	titles     security.ContentSanitizer
	bodies     security.ContentSanitizer
	cache      *CacheAggregator
	activity   ActivityLogger
	events     EventPublisher
	cfg        CoordinatorConfig
	now        func() time.Time
}

func NewThreadCoordinator(
	store repository.Store,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	titles security.ContentSanitizer,
	bodies security.ContentSanitizer,
	events EventPublisher,
	cfg CoordinatorConfig,
) *ThreadCoordinator {
	if isAdmin == nil {
		isAdmin = store.Users().IsAdmin
	}
	if cfg.ExcerptRunes <= 0 {
		cfg.ExcerptRunes = 200
	}
	return &ThreadCoordinator{
		store:      store,
		isAdmin:    isAdmin,
		throttle:   NewThrottleGuard(store.Threads(), cfg.Cooldown),
		moderation: NewModerationGuard(),
		titles:     titles,
		bodies:     bodies,
		cache:      NewCacheAggregator(store),
		activity:   NewActivityLogger(store.Activities()),
		events:     events,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock replaces the time source of the coordinator and its throttle.
func (c *ThreadCoordinator) WithClock(now func() time.Time) *ThreadCoordinator {
	c.now = now
	c.throttle.now = now
	return c
}

// WithActivityLogger replaces the activity sink.
func (c *ThreadCoordinator) WithActivityLogger(l ActivityLogger) *ThreadCoordinator {
	c.activity = l
	return c
}

// CacheAggregator exposes the aggregator for callers that bump view counts.
func (c *ThreadCoordinator) CacheAggregator() *CacheAggregator {
	return c.cache
}

func (c *ThreadCoordinator) CreateThread(ctx context.Context, in CreateThreadInput) (*models.Thread, error) {
	span, ctx := observability.NewSpan(ctx, "ThreadCoordinator.CreateThread",
		attribute.Int64("actor.id", int64(in.Actor.UserID)),
		attribute.Bool("actor.system", in.Actor.System),
	)
	defer span.End()

	thread, err := c.createThread(ctx, in)
	c.finish(ctx, span, "create", err)
	if err != nil {
		return nil, err
	}
	span.AddAttributes(attribute.Int64("thread.id", int64(thread.ID)))
	return thread, nil
}

func (c *ThreadCoordinator) createThread(ctx context.Context, in CreateThreadInput) (*models.Thread, error) {
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if err := validateThreadPayload(&in.Title, in.Body, in.Flags); err != nil {
		return nil, err
	}

	if err := c.throttle.Check(ctx, in.Actor.UserID, in.Actor.System); err != nil {
		c.rejected("throttle")
		return nil, err
	}

	thread := &models.Thread{UserID: in.Actor.UserID}
	dirty := DirtyTimestamps(thread, in.Flags, false)
	if err := c.authorize(ctx, in.Actor, dirty); err != nil {
		return nil, err
	}

	now := c.now()
	thread.Title = c.titles.Sanitize(in.Title)
	thread.SetSnapshot(models.DefaultThreadCache())
	NormalizeTimestamps(thread, dirty, in.Flags, now)
	if ApplyPublication(thread, in.IsDraft, now) {
		dirty = append(dirty, models.FieldPublishedAt)
	}

	content := c.contentFor(in.Body)
	err := c.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Threads().Create(ctx, thread); err != nil {
			return err
		}
		if content == nil {
			return nil
		}
		content.ThreadID = thread.ID
		return tx.Contents().Upsert(ctx, content)
	})
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	thread.Content = content

	if snapshot, err := c.cache.Refresh(ctx, thread.ID); err != nil {
		c.sideEffectFailed(ctx, "cache_refresh", thread.ID, err)
	} else {
		thread.SetSnapshot(snapshot)
	}

	c.afterSave(ctx, in.Actor, thread, true)

	slog.InfoContext(ctx, "thread created",
		"thread_id", thread.ID,
		"user_id", thread.UserID,
		"dirty", dirty,
		"draft", thread.IsDraft(),
		"correlation_id", observability.ExtractCorrelationID(ctx),
	)
	return thread, nil
}

func (c *ThreadCoordinator) UpdateThread(ctx context.Context, in UpdateThreadInput) (*models.Thread, error) {
	span, ctx := observability.NewSpan(ctx, "ThreadCoordinator.UpdateThread",
		attribute.Int64("actor.id", int64(in.Actor.UserID)),
		attribute.Int64("thread.id", int64(in.ThreadID)),
	)
	defer span.End()

	thread, err := c.updateThread(ctx, in)
	c.finish(ctx, span, "update", err)
	return thread, err
}

func (c *ThreadCoordinator) updateThread(ctx context.Context, in UpdateThreadInput) (*models.Thread, error) {
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, models.NewValidationError("Title cannot be empty")
	}
	if err := validateThreadPayload(in.Title, in.Body, in.Flags); err != nil {
		return nil, err
	}

	thread, err := c.store.Threads().GetByID(ctx, in.ThreadID)
	if err != nil {
		return nil, models.FromStorage(err, "Thread", in.ThreadID)
	}

	admin := adminCheck{coordinator: c, actor: in.Actor}
	if thread.UserID != in.Actor.UserID {
		ok, err := admin.is(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.NewUnauthorizedError("You can only update your own threads")
		}
	}

	dirty := DirtyTimestamps(thread, in.Flags, true)
	if violations := c.moderation.Violations(dirty); len(violations) > 0 {
		ok, err := admin.is(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.moderation.Authorize(ok, dirty); err != nil {
			c.rejected("moderation")
			return nil, err
		}
	}

	if in.Title != nil && *in.Title != thread.Title {
		thread.Title = c.titles.Sanitize(*in.Title)
	}

	now := c.now()
	NormalizeTimestamps(thread, dirty, in.Flags, now)
	if ApplyPublication(thread, in.IsDraft, now) {
		dirty = append(dirty, models.FieldPublishedAt)
	}

	content := c.contentFor(in.Body)
	err = c.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Threads().Update(ctx, thread); err != nil {
			return err
		}
		if content == nil {
			return nil
		}
		content.ThreadID = thread.ID
		return tx.Contents().Upsert(ctx, content)
	})
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	// Readers may repopulate the key until the commit; drop it only afterwards.
	cache.InvalidateThread(ctx, thread.ID)
	if content != nil {
		thread.Content = content
	}

	c.afterSave(ctx, in.Actor, thread, false)

	slog.InfoContext(ctx, "thread updated",
		"thread_id", thread.ID,
		"dirty", dirty,
		"draft", thread.IsDraft(),
		"correlation_id", observability.ExtractCorrelationID(ctx),
	)
	return thread, nil
}

// DeleteThread tombstones a thread. Only the owner or an admin may do it.
func (c *ThreadCoordinator) DeleteThread(ctx context.Context, in DeleteThreadInput) error {
	span, ctx := observability.NewSpan(ctx, "ThreadCoordinator.DeleteThread",
		attribute.Int64("actor.id", int64(in.Actor.UserID)),
		attribute.Int64("thread.id", int64(in.ThreadID)),
	)
	defer span.End()

	err := c.deleteThread(ctx, in)
	c.finish(ctx, span, "delete", err)
	return err
}

func (c *ThreadCoordinator) deleteThread(ctx context.Context, in DeleteThreadInput) error {
	if err := requireActor(in.Actor); err != nil {
		return err
	}
	thread, err := c.store.Threads().GetByID(ctx, in.ThreadID)
	if err != nil {
		return models.FromStorage(err, "Thread", in.ThreadID)
	}
	if thread.UserID != in.Actor.UserID {
		admin := adminCheck{coordinator: c, actor: in.Actor}
		ok, err := admin.is(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewUnauthorizedError("You can only delete your own threads")
		}
	}

	if err := c.store.Threads().Delete(ctx, thread.ID); err != nil {
		return models.NewPersistenceError(err)
	}
	cache.InvalidateThread(ctx, thread.ID)

	c.publish(ctx, notifications.EventThreadDeleted, in.Actor, thread)
	return nil
}

// RefreshCache recomputes the engagement snapshot of a thread on demand.
func (c *ThreadCoordinator) RefreshCache(ctx context.Context, threadID uint) (models.ThreadCache, error) {
	span, ctx := observability.NewSpan(ctx, "ThreadCoordinator.RefreshCache",
		attribute.Int64("thread.id", int64(threadID)),
	)
	defer span.End()

	snapshot, err := c.cache.Refresh(ctx, threadID)
	if err != nil {
		span.SetError(err)
		return models.ThreadCache{}, err
	}
	return snapshot, nil
}

// OnCommentCreated subscribes the comment's author to the thread and
// refreshes the thread snapshot. Calling it again for the same comment is a
// no-op apart from the refresh.
func (c *ThreadCoordinator) OnCommentCreated(ctx context.Context, threadID uint, comment *models.Comment) error {
	span, ctx := observability.NewSpan(ctx, "ThreadCoordinator.OnCommentCreated",
		attribute.Int64("thread.id", int64(threadID)),
	)
	defer span.End()

	if comment == nil || comment.UserID == 0 {
		err := models.NewValidationError("Comment author is required")
		span.SetError(err)
		return err
	}
	if _, err := c.store.Threads().GetByID(ctx, threadID); err != nil {
		err = models.FromStorage(err, "Thread", threadID)
		span.SetError(err)
		return err
	}
	if err := c.store.Engagement().Subscribe(ctx, comment.UserID, threadID); err != nil {
		span.SetError(err)
		return models.NewPersistenceError(err)
	}
	if _, err := c.cache.Refresh(ctx, threadID); err != nil {
		span.SetError(err)
		return err
	}

	if c.events == nil {
		return nil
	}
	err := c.events.PublishThreadEvent(ctx, notifications.ThreadEvent{
		Type:       notifications.EventThreadReplied,
		ThreadID:   threadID,
		ActorID:    comment.UserID,
		Published:  true,
		OccurredAt: c.now(),
	})
	if err != nil {
		c.sideEffectFailed(ctx, "event", threadID, err)
	}
	return nil
}

// ListThreads pages through published threads, pinned ones first.
func (c *ThreadCoordinator) ListThreads(ctx context.Context, limit, offset int) ([]*models.Thread, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	threads, err := c.store.Threads().ListPublished(ctx, limit, offset)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	return threads, nil
}

// GetThread returns a live thread, served from Redis when possible.
func (c *ThreadCoordinator) GetThread(ctx context.Context, threadID uint) (*models.Thread, error) {
	var thread models.Thread
	err := cache.Aside(ctx, cache.ThreadKey(threadID), &thread, cache.ThreadTTL, func() error {
		t, err := c.store.Threads().GetByID(ctx, threadID)
		if err != nil {
			return models.FromStorage(err, "Thread", threadID)
		}
		thread = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *ThreadCoordinator) contentFor(body *string) *models.ThreadContent {
	if body == nil {
		return nil
	}
	return &models.ThreadContent{
		Body:     c.bodies.Sanitize(*body),
		Markdown: *body,
	}
}

func (c *ThreadCoordinator) authorize(ctx context.Context, actor Actor, dirty []string) error {
	if len(c.moderation.Violations(dirty)) == 0 {
		return nil
	}
	admin, err := c.isAdmin(ctx, actor.UserID)
	if err != nil {
		return models.FromStorage(err, "User", actor.UserID)
	}
	if err := c.moderation.Authorize(admin, dirty); err != nil {
		c.rejected("moderation")
		return err
	}
	return nil
}

// afterSave runs the post-commit side effects in order: points, the
// "published thread" activity on create, then the thread event. The thread is
// already committed, so failures are logged and counted only.
func (c *ThreadCoordinator) afterSave(ctx context.Context, actor Actor, thread *models.Thread, created bool) {
	if err := c.store.Users().AddPoints(ctx, thread.UserID, c.cfg.PointReward); err != nil {
		c.sideEffectFailed(ctx, "points", thread.ID, err)
	}

	if created {
		body := ""
		if thread.Content != nil {
			body = thread.Content.Body
		}
		props := map[string]interface{}{
			"content": security.Excerpt(body, c.cfg.ExcerptRunes),
		}
		if err := c.activity.Log(ctx, models.ActivityPublishedThread, thread, actor.UserID, props); err != nil {
			c.sideEffectFailed(ctx, "activity", thread.ID, err)
		}
	}

	event := notifications.EventThreadUpdated
	if created {
		event = notifications.EventThreadCreated
	}
	c.publish(ctx, event, actor, thread)
}

func (c *ThreadCoordinator) publish(ctx context.Context, eventType string, actor Actor, thread *models.Thread) {
	if c.events == nil {
		return
	}
	err := c.events.PublishThreadEvent(ctx, notifications.ThreadEvent{
		Type:       eventType,
		ThreadID:   thread.ID,
		UserID:     thread.UserID,
		ActorID:    actor.UserID,
		Published:  !thread.IsDraft(),
		OccurredAt: c.now(),
	})
	if err != nil {
		c.sideEffectFailed(ctx, "event", thread.ID, err)
	}
}

func (c *ThreadCoordinator) sideEffectFailed(ctx context.Context, effect string, threadID uint, err error) {
	observability.SideEffectFailures.WithLabelValues(effect).Inc()
	slog.ErrorContext(ctx, "thread side effect failed",
		"effect", effect,
		"thread_id", threadID,
		"error", err,
		"correlation_id", observability.ExtractCorrelationID(ctx),
	)
}

func (c *ThreadCoordinator) rejected(guard string) {
	observability.GuardRejections.WithLabelValues(guard).Inc()
}

func (c *ThreadCoordinator) finish(ctx context.Context, span *observability.Span, operation string, err error) {
	outcome := saveOutcome(err)
	observability.RecordSave(operation, outcome)
	if err == nil {
		return
	}
	span.SetError(err)
	if outcome == observability.OutcomeFailed {
		slog.ErrorContext(ctx, "thread save failed",
			"operation", operation,
			"error", err,
			"correlation_id", observability.ExtractCorrelationID(ctx),
		)
	}
}

func saveOutcome(err error) string {
	switch models.ErrorCode(err) {
	case "":
		if err == nil {
			return observability.OutcomeSuccess
		}
		return observability.OutcomeFailed
	case models.CodeRateLimited, models.CodeForbidden, models.CodeUnauthorized:
		return observability.OutcomeRejected
	case models.CodeValidation, models.CodeNotFound:
		return observability.OutcomeInvalid
	default:
		return observability.OutcomeFailed
	}
}

// adminCheck resolves the actor's role at most once per operation.
type adminCheck struct {
	coordinator *ThreadCoordinator
	actor       Actor
	resolved    bool
	admin       bool
}

func (a *adminCheck) is(ctx context.Context) (bool, error) {
	if a.resolved {
		return a.admin, nil
	}
	admin, err := a.coordinator.isAdmin(ctx, a.actor.UserID)
	if err != nil {
		return false, models.FromStorage(err, "User", a.actor.UserID)
	}
	a.admin, a.resolved = admin, true
	return admin, nil
}
