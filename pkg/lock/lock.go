// Package lock serializes work per key, inside one process and across processes through Redis.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"venuely/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the context ends before the lock is obtained
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock
type Unlock func()

// Locker hands out exclusive access per key
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// ================== IN-PROCESS ==================

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is a per-key mutex whose entries are dropped once nobody holds or waits on them
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedEntry)}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (Unlock, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.release(key, e)
		})
	}, nil
}

func (m *KeyedMutex) release(key string, e *keyedEntry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}

// Len returns the number of keys currently held or awaited
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// ================== REDIS ==================

// Release only deletes the key when it still carries our token
var releaseScript = redis.NewScript(`
-- KEYS[1] = lock key
-- ARGV[1] = owner token
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX + compare-and-delete release).
// The lease can expire under a slow holder, so it only reduces contention between
// instances; the versioned venue update is what keeps two writers from both committing.
type RedisLocker struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	retryEvery time.Duration
	log        *logger.Logger
}

// NewRedisLocker builds a Redis lock. ttl bounds how long a crashed holder blocks others.
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client:     client,
		prefix:     prefix,
		ttl:        ttl,
		retryEvery: 20 * time.Millisecond,
		log:        logger.GetDefault(),
	}
}

// HoldTTL is the lease a holder needs to run maxRetries+1 transactions of up to
// storeTimeout each. The configured ttl wins when it is longer.
func HoldTTL(ttl, storeTimeout time.Duration, maxRetries int) time.Duration {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if need := storeTimeout * time.Duration(maxRetries+1); need > ttl {
		return need
	}
	return ttl
}

// PreloadScripts loads the release script so the first unlock avoids a round trip
func (l *RedisLocker) PreloadScripts(ctx context.Context) error {
	if err := releaseScript.Load(ctx, l.client).Err(); err != nil {
		return fmt.Errorf("failed to load lock release script: %w", err)
	}
	return nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	fullKey := l.prefix + key
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(l.retryEvery)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// released on a fresh context so a cancelled request still frees the key
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			released, err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Int()
			switch {
			case err != nil:
				l.log.Warn("Failed to release Redis lock, it expires with its lease",
					slog.String("key", fullKey),
					slog.Duration("ttl", l.ttl),
					slog.Any("error", err),
				)
			case released == 0:
				l.log.Warn("Redis lock lease expired before release",
					slog.String("key", fullKey),
					slog.Duration("ttl", l.ttl),
				)
			}
		})
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ================== COMPOSITION ==================

// Chain acquires every locker in order and releases them in reverse
type Chain []Locker

func (c Chain) Lock(ctx context.Context, key string) (Unlock, error) {
	unlocks := make([]Unlock, 0, len(c))
	releaseAll := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, l := range c {
		u, err := l.Lock(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		unlocks = append(unlocks, u)
	}
	return releaseAll, nil
}

// New returns the in-process lock, chained with a Redis lock when a client is given
func New(client *redis.Client, prefix string, ttl time.Duration) Locker {
	local := NewKeyedMutex()
	if client == nil {
		return local
	}
	return Chain{local, NewRedisLocker(client, prefix, ttl)}
}
