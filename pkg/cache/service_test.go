package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestService(t *testing.T) (*miniredis.Miniredis, Service) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewService(client)
}

func TestGetSetDelete(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	var got item
	assert.ErrorIs(t, svc.Get(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, svc.Set(ctx, "k", item{Name: "a", Count: 2}, time.Minute))
	require.NoError(t, svc.Get(ctx, "k", &got))
	assert.Equal(t, item{Name: "a", Count: 2}, got)
	assert.True(t, svc.Exists(ctx, "k"))

	require.NoError(t, svc.Delete(ctx, "k"))
	assert.False(t, svc.Exists(ctx, "k"))
}

func TestDeletePattern(t *testing.T) {
	mr, svc := newTestService(t)
	ctx := context.Background()

	for _, k := range []string{"venuely:venues:list:1", "venuely:venues:list:2", "venuely:other"} {
		require.NoError(t, svc.Set(ctx, k, 1, time.Minute))
	}
	require.NoError(t, svc.DeletePattern(ctx, "venuely:venues:list*"))

	assert.False(t, mr.Exists("venuely:venues:list:1"))
	assert.False(t, mr.Exists("venuely:venues:list:2"))
	assert.True(t, mr.Exists("venuely:other"))
}

func TestGetOrSetCallsFetcherOnce(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()
	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return item{Name: "venue", Count: calls}, nil
	}

	var first, second item
	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, fetch, &first))
	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, fetch, &second))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestGetOrSetPropagatesFetcherError(t *testing.T) {
	_, svc := newTestService(t)
	boom := errors.New("boom")

	var got item
	err := svc.GetOrSet(context.Background(), "k", time.Minute, func() (interface{}, error) { return nil, boom }, &got)
	assert.ErrorIs(t, err, boom)
}

func TestNoopServiceAlwaysFetches(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.ErrorIs(t, svc.Get(ctx, "k", &v), ErrCacheMiss)

	require.NoError(t, svc.GetOrSet(ctx, "k", time.Minute, func() (interface{}, error) { return 7, nil }, &v))
	assert.Equal(t, 7, v)
}
