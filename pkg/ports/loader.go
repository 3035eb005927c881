package ports

import (
	"context"

	"github.com/aretw0/passage/pkg/domain"
)

// RouteLoader defines how the engine resolves matched route entries.
// This allows the catalog layer (Loam, file, Memory) to be decoupled.
type RouteLoader interface {
	// GetRoute returns the executable route registered under id.
	// Returns domain.ErrRouteNotFound if the id is unknown.
	GetRoute(ctx context.Context, id string) (domain.Route, error)

	// ListRoutes returns the IDs of all routes available in the catalog.
	// This is used for introspection tools (e.g. 'passage routes').
	ListRoutes(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying catalog changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
