package tests

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RouteLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.RouteLoader.
// expected lists every route ID the loader was seeded with.
func RouteLoaderContractTest(t *testing.T, loader ports.RouteLoader, expected []string) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetRoute_Success", func(t *testing.T) {
		for _, id := range expected {
			route, err := loader.GetRoute(ctx, id)
			require.NoError(t, err, "route %s", id)
			assert.Equal(t, id, route.ID)
		}
	})

	t.Run("GetRoute_NotFound", func(t *testing.T) {
		_, err := loader.GetRoute(ctx, "non-existent-route")
		assert.ErrorIs(t, err, domain.ErrRouteNotFound)
	})

	t.Run("ListRoutes", func(t *testing.T) {
		ids, err := loader.ListRoutes(ctx)
		require.NoError(t, err)

		want := append([]string(nil), expected...)
		sort.Strings(want)
		got := append([]string(nil), ids...)
		sort.Strings(got)
		assert.Equal(t, want, got)
	})
}

// OutcomeStoreContractTest runs a suite of tests to verify that an OutcomeStore implementation
// adheres to the defined interface contract.
func OutcomeStoreContractTest(t *testing.T, store ports.OutcomeStore) {
	t.Helper()
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	newOutcome := func(id string) *domain.Outcome {
		return &domain.Outcome{
			ID: id,
			Request: domain.NavigationRequest{
				Path:    "/inbox",
				To:      []string{"root", "inbox"},
				Params:  domain.Params{"id": "7"},
				Attempt: 1,
			},
			Status:     domain.StatusRedirected,
			Phase:      domain.PhaseLeave,
			Redirect:   &domain.Redirect{To: "login"},
			StartedAt:  time.Now().UTC().Truncate(time.Second),
			FinishedAt: time.Now().UTC().Truncate(time.Second),
			Trace: []domain.Step{
				{Phase: domain.PhaseLeave, RouteID: "root", Convention: domain.ConventionSync, Aborted: true},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		id := prefix + "-save"
		require.NoError(t, store.Save(ctx, newOutcome(id)))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, loaded.ID)
		assert.Equal(t, domain.StatusRedirected, loaded.Status)
		assert.Equal(t, domain.PhaseLeave, loaded.Phase)
		assert.Equal(t, "/inbox", loaded.Request.Path)
		assert.Equal(t, []string{"root", "inbox"}, loaded.Request.To)
		require.NotNil(t, loaded.Redirect)
		assert.Equal(t, "login", loaded.Redirect.To)
		assert.Len(t, loaded.Trace, 1)
		// JSON backed stores may turn numbers into float64; only presence is checked.
		assert.NotNil(t, loaded.Request.Params["id"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		id := prefix + "-overwrite"
		o := newOutcome(id)
		require.NoError(t, store.Save(ctx, o))

		o.Status = domain.StatusCompleted
		o.Redirect = nil
		require.NoError(t, store.Save(ctx, o))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, loaded.Status)
		assert.Nil(t, loaded.Redirect)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, prefix+"-missing")
		assert.True(t, errors.Is(err, domain.ErrOutcomeNotFound), "got %v", err)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "-delete"
		require.NoError(t, store.Save(ctx, newOutcome(id)))
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrOutcomeNotFound, "Load after Delete should return ErrOutcomeNotFound")

		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := prefix + "-list-1"
		id2 := prefix + "-list-2"
		require.NoError(t, store.Save(ctx, newOutcome(id1)))
		require.NoError(t, store.Save(ctx, newOutcome(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// LockerContractTest verifies mutual exclusion and release semantics of a ports.DistributedLocker.
func LockerContractTest(t *testing.T, locker ports.DistributedLocker) {
	t.Helper()
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	t.Run("Acquire and Release", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))

		unlock, err = locker.Lock(ctx, key, time.Second)
		require.NoError(t, err, "lock must be reusable after release")
		require.NoError(t, unlock(ctx))
	})

	t.Run("Contention times out", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, key, time.Second)
		assert.Error(t, err, "second holder must not acquire the lock")
	})
}
