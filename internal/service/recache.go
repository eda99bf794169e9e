package service

import (
	"context"
	"log/slog"

	"agora/internal/models"

	"golang.org/x/time/rate"
)

const defaultRecacheBatch = 500

// RecacheReport summarizes a bulk refresh.
type RecacheReport struct {
	Refreshed int
	Skipped   int
	Failed    int
}

// RefreshAll recomputes the snapshot of every live thread in id order. The
// limiter paces the refreshes; nil means no pacing. Threads deleted while the
// run is in progress are skipped, other failures are counted and the run
// continues. Only listing errors and context cancellation abort it.
func (c *ThreadCoordinator) RefreshAll(ctx context.Context, limiter *rate.Limiter, batch int) (RecacheReport, error) {
	if batch <= 0 {
		batch = defaultRecacheBatch
	}

	var report RecacheReport
	var after uint
	for {
		ids, err := c.store.Threads().ListIDs(ctx, after, batch)
		if err != nil {
			return report, models.NewPersistenceError(err)
		}
		if len(ids) == 0 {
			return report, nil
		}

		for _, id := range ids {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return report, err
				}
			}

			_, err := c.RefreshCache(ctx, id)
			switch {
			case err == nil:
				report.Refreshed++
			case models.IsCode(err, models.CodeNotFound):
				report.Skipped++
			default:
				report.Failed++
				slog.WarnContext(ctx, "thread cache refresh failed", "thread_id", id, "error", err)
			}
		}
		after = ids[len(ids)-1]
	}
}
