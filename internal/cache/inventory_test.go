package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Title string `json:"title"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func TestThreadKey(t *testing.T) {
	assert.Equal(t, "thread:42", ThreadKey(42))
}

func TestAside_WithoutClientCallsFetch(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest payload
	err := Aside(context.Background(), "k", &dest, ThreadTTL, func() error {
		calls++
		dest.Title = "fresh"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "fresh", dest.Title)
}

func TestAside_CachesAfterFirstFetch(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			dest.Title = "hello"
			return nil
		}
	}

	var first payload
	require.NoError(t, Aside(ctx, ThreadKey(1), &first, ThreadTTL, fetch(&first)))
	assert.True(t, mr.Exists(ThreadKey(1)))

	var second payload
	require.NoError(t, Aside(ctx, ThreadKey(1), &second, ThreadTTL, fetch(&second)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "hello", second.Title)
	assert.Equal(t, ThreadTTL, mr.TTL(ThreadKey(1)))
}

func TestAside_FetchErrorIsReturnedAndNotCached(t *testing.T) {
	mr := setupMiniredis(t)
	boom := errors.New("boom")

	var dest payload
	err := Aside(context.Background(), ThreadKey(2), &dest, ThreadTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(ThreadKey(2)))
}

func TestInvalidateThread(t *testing.T) {
	mr := setupMiniredis(t)
	require.NoError(t, mr.Set(ThreadKey(3), `{"title":"stale"}`))

	InvalidateThread(context.Background(), 3)
	assert.False(t, mr.Exists(ThreadKey(3)))
}
