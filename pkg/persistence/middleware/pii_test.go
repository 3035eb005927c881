package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/passage/pkg/adapters/memory"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	// Mask keys containing "password" or "ssn"
	secureStore := middleware.NewPIIMiddleware([]string{"password", "ssn"})(underlyingStore)

	ctx := context.Background()
	outcome := &domain.Outcome{
		ID: "o1",
		Request: domain.NavigationRequest{
			Path:   "/signup",
			Params: domain.Params{"username": "jdoe", "user_password": "secret123"},
			Query: domain.Query{"details": map[string]any{
				"address":    "123 St",
				"ssn_number": "999-99-9999",
			}},
		},
		Status:   domain.StatusRedirected,
		Redirect: &domain.Redirect{To: "confirm", Query: domain.Query{"password": "secret123"}},
		Trace: []domain.Step{
			{RouteID: "signup", Result: map[string]any{"ssn": "999-99-9999", "ok": true}},
		},
	}

	require.NoError(t, secureStore.Save(ctx, outcome))

	// In-memory outcome is not modified
	assert.Equal(t, "secret123", outcome.Request.Params["user_password"])
	assert.Equal(t, "secret123", outcome.Redirect.Query["password"])
	assert.Equal(t, "999-99-9999", outcome.Trace[0].Result.(map[string]any)["ssn"])

	stored, err := underlyingStore.Load(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", stored.Request.Params["username"])
	assert.Equal(t, "***", stored.Request.Params["user_password"])
	details := stored.Request.Query["details"].(map[string]any)
	assert.Equal(t, "***", details["ssn_number"])
	assert.Equal(t, "123 St", details["address"])
	assert.Equal(t, "***", stored.Redirect.Query["password"])
	assert.Equal(t, "***", stored.Trace[0].Result.(map[string]any)["ssn"])
	assert.Equal(t, true, stored.Trace[0].Result.(map[string]any)["ok"])
}

func TestChain(t *testing.T) {
	underlyingStore := memory.NewStore()
	store := middleware.Chain(underlyingStore,
		middleware.NewPIIMiddleware([]string{"token"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newOutcome("o1")))

	loaded, err := store.Load(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Request.Params["token"], "masked before encryption")

	raw, err := underlyingStore.Load(ctx, "o1")
	require.NoError(t, err)
	assert.Contains(t, raw.Result, "__encrypted__")
}
