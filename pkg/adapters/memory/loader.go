package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/passage/pkg/domain"
)

// Loader implements ports.RouteLoader using an in-memory map of routes built in code.
// Safe for concurrent use.
type Loader struct {
	mu     sync.RWMutex
	routes map[string]domain.Route
}

// NewLoader creates a new Loader from the provided routes.
// Every route needs a unique, non-empty ID.
func NewLoader(routes ...domain.Route) (*Loader, error) {
	l := &Loader{routes: make(map[string]domain.Route, len(routes))}
	for _, r := range routes {
		if err := l.Register(r); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// MustLoader is like NewLoader but panics on error. Handy in tests and examples.
func MustLoader(routes ...domain.Route) *Loader {
	l, err := NewLoader(routes...)
	if err != nil {
		panic(err)
	}
	return l
}

// Register adds a route to the catalog.
func (l *Loader) Register(r domain.Route) error {
	if r.ID == "" {
		return fmt.Errorf("%w: route missing ID", domain.ErrInvalidRoute)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.routes[r.ID]; exists {
		return fmt.Errorf("%w: duplicate route %q", domain.ErrInvalidRoute, r.ID)
	}
	l.routes[r.ID] = r
	return nil
}

// GetRoute retrieves a route by ID.
func (l *Loader) GetRoute(ctx context.Context, id string) (domain.Route, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.routes[id]
	if !ok {
		return domain.Route{}, fmt.Errorf("%w: %s", domain.ErrRouteNotFound, id)
	}
	return r, nil
}

// ListRoutes returns all available route IDs.
func (l *Loader) ListRoutes(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.routes))
	for k := range l.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
