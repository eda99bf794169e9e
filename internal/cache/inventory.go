package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ThreadKeyPrefix = "thread:%d"
)

const (
	ThreadTTL = 10 * time.Minute
)

func ThreadKey(threadID uint) string {
	return fmt.Sprintf(ThreadKeyPrefix, threadID)
}

// Aside tries Redis first; on a miss it calls fetch, which must populate
// dest, then stores dest with ttl. Redis failures never fail the read.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
		slog.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.WarnContext(ctx, "cache read failed", "key", key, "err", err)
	}

	if err := fetch(); err != nil {
		return err
	}

	if b, err := json.Marshal(dest); err == nil {
		if err := client.Set(ctx, key, b, ttl).Err(); err != nil {
			slog.WarnContext(ctx, "cache write failed", "key", key, "err", err)
		}
	}
	return nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateThread(ctx context.Context, threadID uint) {
	Invalidate(ctx, ThreadKey(threadID))
}
