package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/passage/pkg/adapters/memory"
	"github.com/aretw0/passage/pkg/adapters/redis"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SerialisesSameSession(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	var active, overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, "s1", func(context.Context) error {
				if atomic.AddInt32(&active, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Zero(t, atomic.LoadInt32(&overlaps))
}

func TestManager_DifferentSessionsRunConcurrently(t *testing.T) {
	manager := session.NewManager(nil)
	ctx := context.Background()

	inside := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = manager.WithLock(ctx, "a", func(context.Context) error {
			close(inside)
			<-release
			return nil
		})
	}()
	<-inside

	done := make(chan struct{})
	go func() {
		_ = manager.WithLock(ctx, "b", func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session b must not wait for session a")
	}
	close(release)
}

func TestManager_History(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, manager.Save(ctx, &domain.Outcome{
			ID:        id,
			Request:   domain.NavigationRequest{SessionID: "s1"},
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, manager.Save(ctx, &domain.Outcome{ID: "other", Request: domain.NavigationRequest{SessionID: "s2"}}))

	history, err := manager.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "c", history[0].ID)
	assert.Equal(t, "b", history[2].ID)

	require.NoError(t, manager.Delete(ctx, "a"))
	history, err = manager.History(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	assert.ErrorIs(t, manager.Delete(ctx, "a"), domain.ErrOutcomeNotFound)
}

func TestManager_NoStore(t *testing.T) {
	manager := session.NewManager(nil)
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, &domain.Outcome{ID: "x"}))
	_, err := manager.Load(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrOutcomeNotFound)
	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := redis.NewLocker(client, "test:", redis.WithPollInterval(5*time.Millisecond))
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	err := manager.WithLock(ctx, "s1", func(context.Context) error {
		assert.True(t, mr.Exists("test:lock:s1"), "distributed lock held during fn")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:s1"), "distributed lock released after fn")

	// A foreign holder blocks the manager until ctx expires.
	foreign, err := locker.Lock(ctx, "s2", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = foreign(ctx) }()

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err = manager.WithLock(waitCtx, "s2", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
