package ports

import (
	"context"

	"github.com/aretw0/passage/pkg/domain"
)

// OutcomeStore defines the interface for persisting navigation outcomes.
// Persisted outcomes can be inspected after the fact and retried.
type OutcomeStore interface {
	// Save persists the outcome under its ID, replacing any previous value.
	Save(ctx context.Context, outcome *domain.Outcome) error

	// Load retrieves the outcome with the given ID.
	// Returns domain.ErrOutcomeNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Outcome, error)

	// Delete removes the outcome. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all persisted outcomes.
	List(ctx context.Context) ([]string, error)
}
