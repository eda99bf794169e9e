package service

import (
	"context"

	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"

	"golang.org/x/sync/errgroup"
)

// CacheAggregator recomputes a thread's engagement snapshot from the source
// tables. Counters are recounted, never incremented, so concurrent refreshes
// converge on the last writer.
type CacheAggregator struct {
	store repository.Store
}

func NewCacheAggregator(store repository.Store) *CacheAggregator {
	return &CacheAggregator{store: store}
}

// Refresh rebuilds and stores the snapshot of threadID. ViewsCount is carried
// over from the stored snapshot.
func (a *CacheAggregator) Refresh(ctx context.Context, threadID uint) (models.ThreadCache, error) {
	defer observability.TrackCacheRefresh()()

	thread, err := a.store.Threads().GetByID(ctx, threadID)
	if err != nil {
		return models.ThreadCache{}, models.FromStorage(err, "Thread", threadID)
	}

	snapshot := models.DefaultThreadCache()
	snapshot.ViewsCount = thread.Snapshot().ViewsCount

	var latest *models.Comment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snapshot.CommentsCount, err = a.store.Comments().CountByThread(gctx, threadID)
		return err
	})
	g.Go(func() (err error) {
		snapshot.LikesCount, err = a.store.Engagement().CountLikes(gctx, threadID)
		return err
	})
	g.Go(func() (err error) {
		snapshot.FavoritesCount, err = a.store.Engagement().CountFavorites(gctx, threadID)
		return err
	})
	g.Go(func() (err error) {
		snapshot.SubscriptionsCount, err = a.store.Engagement().CountSubscriptions(gctx, threadID)
		return err
	})
	g.Go(func() (err error) {
		latest, err = a.store.Comments().LatestByThread(gctx, threadID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ThreadCache{}, models.NewPersistenceError(err)
	}

	if latest != nil {
		snapshot.LastReplyUserID = latest.UserID
		if latest.User != nil {
			snapshot.LastReplyUserName = latest.User.Username
		}
	}
	snapshot = models.NormalizeThreadCache(snapshot)

	if err := a.store.Threads().SetCache(ctx, threadID, snapshot); err != nil {
		return models.ThreadCache{}, models.NewPersistenceError(err)
	}
	cache.InvalidateThread(ctx, threadID)
	return snapshot, nil
}

// IncrementViews bumps the view counter by one. It is the only writer of
// ViewsCount and is not ordered against Refresh.
func (a *CacheAggregator) IncrementViews(ctx context.Context, threadID uint) (models.ThreadCache, error) {
	var snapshot models.ThreadCache
	err := a.store.Transaction(ctx, func(tx repository.Store) error {
		thread, err := tx.Threads().GetByID(ctx, threadID)
		if err != nil {
			return models.FromStorage(err, "Thread", threadID)
		}
		snapshot = thread.Snapshot()
		snapshot.ViewsCount++
		if err := tx.Threads().SetCache(ctx, threadID, snapshot); err != nil {
			return models.NewPersistenceError(err)
		}
		return nil
	})
	if err != nil {
		return models.ThreadCache{}, err
	}
	cache.InvalidateThread(ctx, threadID)
	return snapshot, nil
}
