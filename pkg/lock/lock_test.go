package lock

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"venuely/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(context.Background(), "venue-1")
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, m.Len())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	unlockA, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := m.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	m := NewKeyedMutex()
	unlock, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "a")
	assert.ErrorIs(t, err, ErrNotAcquired)

	unlock()
	unlock() // second call is a no-op
	assert.Equal(t, 0, m.Len())
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLockerExclusive(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedisLocker(client, "test:lock:", time.Second)
	require.NoError(t, l.PreloadScripts(context.Background()))

	unlock, err := l.Lock(context.Background(), "v1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:v1"))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "v1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	unlock()
	assert.False(t, mr.Exists("test:lock:v1"))

	unlock2, err := l.Lock(context.Background(), "v1")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedisLocker(client, "test:lock:", time.Second)

	unlock, err := l.Lock(context.Background(), "v1")
	require.NoError(t, err)

	// the lease expired and another holder took the key
	require.NoError(t, mr.Set("test:lock:v1", "someone-else"))
	unlock()

	got, err := mr.Get("test:lock:v1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestNewChainsRedisWhenAvailable(t *testing.T) {
	_, client := newRedis(t)

	assert.IsType(t, &KeyedMutex{}, New(nil, "p:", time.Second))

	chained := New(client, "p:", time.Second)
	require.IsType(t, Chain{}, chained)

	unlock, err := chained.Lock(context.Background(), "v1")
	require.NoError(t, err)
	unlock()
}

func TestRedisLockerLogsExpiredLease(t *testing.T) {
	mr, client := newRedis(t)
	var buf bytes.Buffer
	l := NewRedisLocker(client, "test:lock:", 100*time.Millisecond)
	l.log = logger.NewWriter(&buf, "info")

	unlock, err := l.Lock(context.Background(), "v1")
	require.NoError(t, err)
	mr.FastForward(200 * time.Millisecond)
	require.False(t, mr.Exists("test:lock:v1"))

	unlock()
	assert.Contains(t, buf.String(), "lease expired before release")
	assert.Contains(t, buf.String(), `"key":"test:lock:v1"`)
}

func TestRedisLockerLogsFailedRelease(t *testing.T) {
	mr, client := newRedis(t)
	var buf bytes.Buffer
	l := NewRedisLocker(client, "test:lock:", time.Second)
	l.log = logger.NewWriter(&buf, "info")

	unlock, err := l.Lock(context.Background(), "v1")
	require.NoError(t, err)
	mr.Close()

	unlock()
	assert.Contains(t, buf.String(), "Failed to release Redis lock")
}

func TestRedisLockerCleanReleaseIsQuiet(t *testing.T) {
	_, client := newRedis(t)
	var buf bytes.Buffer
	l := NewRedisLocker(client, "test:lock:", time.Second)
	l.log = logger.NewWriter(&buf, "info")

	unlock, err := l.Lock(context.Background(), "v1")
	require.NoError(t, err)
	unlock()
	assert.Empty(t, buf.String())
}

func TestHoldTTL(t *testing.T) {
	assert.Equal(t, 10*time.Second, HoldTTL(10*time.Second, 2*time.Second, 3))
	assert.Equal(t, 20*time.Second, HoldTTL(10*time.Second, 5*time.Second, 3))
	assert.Equal(t, 5*time.Second, HoldTTL(time.Second, 5*time.Second, -1))
}
