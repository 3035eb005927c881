// Package registry runs guards implemented as Go functions in-process.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
)

// GuardFunc defines the signature for an in-process guard.
// It receives the hook being decided and returns a verdict or error.
type GuardFunc func(ctx context.Context, inv domain.Invocation) (domain.Verdict, error)

// Registry manages the available guards.
// It implements ports.HookExecutor.
type Registry struct {
	mu       sync.RWMutex
	guards   map[string]GuardFunc
	fallback ports.HookExecutor
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		guards: make(map[string]GuardFunc),
	}
}

// Register adds a guard to the registry.
// If a guard with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn GuardFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards[name] = fn
}

// Fallback delegates unknown guard names to x, e.g. a process runner.
func (r *Registry) Fallback(x ports.HookExecutor) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = x
	return r
}

// Names returns the registered guard names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.guards))
	for name := range r.guards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute looks up a guard by name and runs it.
// Returns an error if the guard is not found.
func (r *Registry) Execute(ctx context.Context, name string, inv domain.Invocation) (domain.Verdict, error) {
	r.mu.RLock()
	fn, ok := r.guards[name]
	fallback := r.fallback
	r.mu.RUnlock()

	if !ok {
		if fallback != nil {
			return fallback.Execute(ctx, name, inv)
		}
		return domain.Verdict{}, fmt.Errorf("guard not found: %s", name)
	}
	return fn(ctx, inv)
}

var _ ports.HookExecutor = (*Registry)(nil)
