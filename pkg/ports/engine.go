package ports

import (
	"context"

	"github.com/aretw0/passage/pkg/domain"
)

// Navigator is the engine surface consumed by driving adapters (HTTP, MCP).
type Navigator interface {
	// Navigate drives a request through the leave and enter phases.
	// Hook failures and aborts are reported inside the returned outcome.
	Navigate(ctx context.Context, req domain.NavigationRequest) (*domain.Outcome, error)

	// Retry re-runs the request of a persisted outcome.
	Retry(ctx context.Context, outcomeID string) (*domain.Outcome, error)

	// Outcome loads a persisted outcome.
	Outcome(ctx context.Context, id string) (*domain.Outcome, error)

	// Outcomes lists the IDs of persisted outcomes.
	Outcomes(ctx context.Context) ([]string, error)

	// DeleteOutcome removes a persisted outcome.
	DeleteOutcome(ctx context.Context, id string) error

	// Routes lists the IDs of the routes known to the loader.
	Routes(ctx context.Context) ([]string, error)
}

// HookExecutor runs named external guards on behalf of declarative hooks.
type HookExecutor interface {
	// Execute runs the guard registered as name and returns its verdict.
	// A guard that cannot run or exits unsuccessfully yields an error.
	Execute(ctx context.Context, name string, inv domain.Invocation) (domain.Verdict, error)
}
