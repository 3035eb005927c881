package dsl_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/passage"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdictExecutor struct {
	verdict domain.Verdict
	calls   []domain.Invocation
}

func (x *verdictExecutor) Execute(ctx context.Context, name string, inv domain.Invocation) (domain.Verdict, error) {
	x.calls = append(x.calls, inv)
	return x.verdict, nil
}

func TestBuilder_Catalog(t *testing.T) {
	b := dsl.New()

	b.Add("editor").
		Describe("Unsaved changes prompt").
		Leave(dsl.Redirect("confirm").Query("next", "/home").Callback())

	b.Add("home").
		Enter(dsl.Result("welcome").Deferred().After(time.Millisecond))

	b.Add("broken").
		Enter(dsl.Fail("boom"))

	b.Add("locked").
		Leave(dsl.Cancel())

	b.Add("confirm")
	b.Add("home") // existing builders are reused

	loader, err := b.Build()
	require.NoError(t, err)

	ids, err := loader.ListRoutes(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"editor", "home", "broken", "locked", "confirm"}, ids)

	eng := passage.New(passage.WithLoader(loader))
	ctx := context.Background()

	t.Run("redirect", func(t *testing.T) {
		o, err := eng.Navigate(ctx, domain.NavigationRequest{Path: "/home", From: []string{"editor"}, To: []string{"home"}})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRedirected, o.Status)
		require.NotNil(t, o.Redirect)
		assert.Equal(t, "confirm", o.Redirect.To)
		assert.Equal(t, "/home", o.Redirect.Query["next"])
	})

	t.Run("deferred result", func(t *testing.T) {
		o, err := eng.Navigate(ctx, domain.NavigationRequest{Path: "/home", To: []string{"home"}})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, o.Status)
		assert.Equal(t, "welcome", o.Result)
	})

	t.Run("failure", func(t *testing.T) {
		o, err := eng.Navigate(ctx, domain.NavigationRequest{Path: "/broken", To: []string{"broken"}})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, o.Status)
		assert.Contains(t, o.Error, "boom")
	})

	t.Run("cancel", func(t *testing.T) {
		o, err := eng.Navigate(ctx, domain.NavigationRequest{Path: "/home", From: []string{"locked"}, To: []string{"home"}})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, o.Status)
		assert.Equal(t, domain.PhaseLeave, o.Phase)
	})
}

func TestBuilder_Guard(t *testing.T) {
	t.Run("needs an executor", func(t *testing.T) {
		b := dsl.New()
		b.Add("admin").Enter(dsl.Guard("is-admin"))
		_, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrInvalidRoute)
	})

	t.Run("verdict applies", func(t *testing.T) {
		x := &verdictExecutor{verdict: domain.Verdict{Effect: "redirect", To: "login"}}
		b := dsl.New().WithExecutor(x)
		b.Add("admin").Enter(dsl.Guard("is-admin"))
		loader, err := b.Build()
		require.NoError(t, err)

		o, err := passage.New(passage.WithLoader(loader)).Navigate(context.Background(),
			domain.NavigationRequest{Path: "/admin", To: []string{"admin"}, Params: domain.Params{"id": "7"}})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRedirected, o.Status)
		require.Len(t, x.calls, 1)
		assert.Equal(t, "admin", x.calls[0].RouteID)
		assert.Equal(t, "7", x.calls[0].Params["id"])
	})
}

func TestBuilder_Invalid(t *testing.T) {
	b := dsl.New()
	b.Add("nowhere").Leave(dsl.Redirect(""))
	_, err := b.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidRoute)
}

func TestHookBuilders(t *testing.T) {
	b := dsl.New()
	b.Add("a").Leave(dsl.Abort("maintenance").Returning("ignored"))
	b.Add("b").Leave(dsl.Pass())
	loader, err := b.Build()
	require.NoError(t, err)

	eng := passage.New(passage.WithLoader(loader))
	o, err := eng.Navigate(context.Background(), domain.NavigationRequest{Path: "/b", From: []string{"b", "a"}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAborted, o.Status)
	assert.Equal(t, "maintenance", o.Reason)
}
