// Package loam adapts a Loam document repository into a route catalog.
//
// Each document describes one route. Its frontmatter (or JSON/YAML body) holds
// the route spec and its Markdown body serves as the route description:
//
//	---
//	on_leave:
//	  effect: redirect
//	  to: login
//	---
//	Inbox listing. Leaving it unauthenticated redirects to login.
//
// A document without an explicit id is named after its path, minus the extension.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/passage/internal/compiler"
	"github.com/aretw0/passage/internal/dto"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
)

// WatchPattern selects the documents that make up a catalog.
const WatchPattern = "**/*.{md,json,yaml,yml}"

// Loader adapts the Loam library to the passage RouteLoader interface.
type Loader struct {
	Repo     *loam.TypedRepository[dto.RouteSpec]
	compiler *compiler.Compiler
}

// Option configures a Loader.
type Option func(*Loader)

// WithExecutor lets route documents delegate hooks to named external guards ("run").
func WithExecutor(x ports.HookExecutor) Option {
	return func(l *Loader) {
		l.compiler = compiler.New(compiler.WithExecutor(x))
	}
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[dto.RouteSpec], opts ...Option) *Loader {
	l := &Loader{
		Repo:     repo,
		compiler: compiler.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initialises a read-only Loam repository at dir and wraps it.
func Open(dir string, opts ...Option) (*Loader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog path: %w", err)
	}
	repo, err := loam.Init(abs,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open loam catalog: %w", err)
	}
	return New(loam.NewTypedRepository[dto.RouteSpec](repo), opts...), nil
}

// GetRoute retrieves and compiles a route document.
// Loam resolves the document even when id omits its extension.
func (l *Loader) GetRoute(ctx context.Context, id string) (domain.Route, error) {
	doc, err := l.find(ctx, id)
	if err != nil {
		return domain.Route{}, err
	}

	spec := doc.spec
	spec.ID = id
	if spec.Description == "" {
		spec.Description = strings.TrimSpace(doc.content)
	}

	route, err := l.compiler.Compile(spec)
	if err != nil {
		return domain.Route{}, fmt.Errorf("loam document %s: %w", doc.path, err)
	}
	return route, nil
}

// Describe returns the human description of a route document.
func (l *Loader) Describe(ctx context.Context, id string) (string, error) {
	doc, err := l.find(ctx, id)
	if err != nil {
		return "", err
	}
	if doc.spec.Description != "" {
		return doc.spec.Description, nil
	}
	return strings.TrimSpace(doc.content), nil
}

// document is the part of a Loam document a route is built from.
type document struct {
	path    string
	spec    dto.RouteSpec
	content string
}

// find resolves id by document path first, then by declared id.
func (l *Loader) find(ctx context.Context, id string) (document, error) {
	doc, getErr := l.Repo.Get(ctx, id)
	if getErr == nil && routeID(doc.Data.ID, doc.ID) == id {
		return document{path: doc.ID, spec: doc.Data, content: doc.Content}, nil
	}

	docs, err := l.Repo.List(ctx)
	if err != nil {
		return document{}, fmt.Errorf("loam list failed: %w", err)
	}
	for _, d := range docs {
		if routeID(d.Data.ID, d.ID) == id {
			return document{path: d.ID, spec: d.Data, content: d.Content}, nil
		}
	}
	return document{}, fmt.Errorf("%w: %s", domain.ErrRouteNotFound, id)
}

// ListRoutes lists all route IDs in the repository.
// Two documents resolving to the same ID are reported as an error.
func (l *Loader) ListRoutes(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := routeID(doc.Data.ID, doc.ID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: ID '%s' is defined in both '%s' and '%s'", domain.ErrInvalidRoute, id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := l.Repo.Watch(ctx, WatchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default: // a reload is already pending
				}
			}
		}
	}()
	return ch, nil
}

// routeID prefers the declared id and falls back to the document path.
func routeID(declared, docID string) string {
	raw := declared
	if raw == "" {
		raw = docID
	}
	return trimExtension(raw)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
