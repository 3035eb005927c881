package dsl

import (
	"fmt"

	"github.com/aretw0/passage/internal/compiler"
	"github.com/aretw0/passage/internal/dto"
	"github.com/aretw0/passage/pkg/adapters/memory"
	"github.com/aretw0/passage/pkg/ports"
)

// Builder manages the catalog construction.
type Builder struct {
	routes   map[string]*RouteBuilder
	order    []string
	executor ports.HookExecutor
}

// New creates a new catalog builder.
func New() *Builder {
	return &Builder{
		routes: make(map[string]*RouteBuilder),
	}
}

// WithExecutor lets Guard hooks delegate to the given executor.
func (b *Builder) WithExecutor(x ports.HookExecutor) *Builder {
	b.executor = x
	return b
}

// Add creates a new route in the catalog.
// If the route already exists, it returns the existing builder.
func (b *Builder) Add(id string) *RouteBuilder {
	if rb, ok := b.routes[id]; ok {
		return rb
	}
	rb := &RouteBuilder{spec: dto.RouteSpec{ID: id}}
	b.routes[id] = rb
	b.order = append(b.order, id)
	return rb
}

// Build compiles the catalog into a memory Loader.
func (b *Builder) Build() (*memory.Loader, error) {
	catalog := dto.Catalog{Routes: make([]dto.RouteSpec, 0, len(b.order))}
	for _, id := range b.order {
		catalog.Routes = append(catalog.Routes, b.routes[id].spec)
	}

	var opts []compiler.Option
	if b.executor != nil {
		opts = append(opts, compiler.WithExecutor(b.executor))
	}
	routes, err := compiler.New(opts...).CompileCatalog(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to compile catalog: %w", err)
	}

	loader, err := memory.NewLoader(routes...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
