package aih

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guscambraia/aih-v3.5/internal/models"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "aih:1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.size())
}

func TestMemoryLocker_DistinctKeysDoNotBlock(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "aih:1")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "aih:2")
	require.NoError(t, err)
	unlockB()
	unlockB()
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	l := NewMemoryLocker()

	unlock, err := l.Lock(context.Background(), "aih:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "aih:1")
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.True(t, IsRetryable(err))

	unlock()
	assert.Equal(t, 0, l.size())
}

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLocker(client, time.Second)
	l.backoff = 5 * time.Millisecond
	l.retries = 2
	return l, mr
}

func TestRedisLocker(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "aih:test")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "aih:test")
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	unlock()
	unlock()
	assert.False(t, mr.Exists("lock:aih:test"))

	unlock2, err := l.Lock(ctx, "aih:test")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_StorageError(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	mr.Close()

	_, err := l.Lock(context.Background(), "aih:test")
	var se *StorageError
	assert.ErrorAs(t, err, &se)
}

func TestSubmitMovement_RedisLockHeld(t *testing.T) {
	l, _ := newTestRedisLocker(t)
	svc, db := createTestService(t, WithLocker(l))
	ctx := context.Background()
	rec := mustCreate(t, svc, "31", "100", "06/2025")

	unlock, err := l.Lock(ctx, recordKey(rec.ID))
	require.NoError(t, err)

	_, err = svc.SubmitMovement(ctx, rec.ID, MovementInput{
		Kind: models.KindExit, Status: models.StatusApprovedDirect, Value: dec("90"),
	}, testActor)
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.True(t, IsRetryable(err))

	var n int64
	db.Model(&models.Movement{}).Where("aih_id = ?", rec.ID).Count(&n)
	assert.Equal(t, int64(1), n)

	unlock()
	mustSubmit(t, svc, rec.ID, models.KindExit, models.StatusApprovedDirect, "90")
}

func TestService_UsesInjectedLocker(t *testing.T) {
	locker := &countingLocker{inner: NewMemoryLocker()}
	svc, _ := createTestService(t, WithLocker(locker))

	rec := mustCreate(t, svc, "5", "10", "06/2025")
	mustSubmit(t, svc, rec.ID, "exit", 1, "10")
	assert.Equal(t, 1, locker.calls)
}

type countingLocker struct {
	mu    sync.Mutex
	calls int
	inner Locker
}

func (c *countingLocker) Lock(ctx context.Context, key string) (func(), error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Lock(ctx, key)
}
