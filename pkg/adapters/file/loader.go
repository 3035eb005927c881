// Package file provides filesystem backed adapters: a route catalog loader
// reading a single YAML, JSON or TOML document and an outcome store writing
// one JSON file per outcome.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/passage/internal/compiler"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.RouteLoader and ports.Watchable over a catalog file.
//
// A catalog is a document with a top level "routes" list:
//
//	routes:
//	  - id: inbox
//	    on_leave: {effect: redirect, to: login}
type Loader struct {
	path     string
	compiler *compiler.Compiler

	mu     sync.RWMutex
	routes map[string]domain.Route
	order  []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithExecutor lets catalog hooks delegate to named external guards ("run").
func WithExecutor(x ports.HookExecutor) LoaderOption {
	return func(l *Loader) {
		l.compiler = compiler.New(compiler.WithExecutor(x))
	}
}

// NewLoader reads and compiles the catalog at path.
// The format is chosen by extension: .yaml/.yml, .json or .toml.
func NewLoader(path string, opts ...LoaderOption) (*Loader, error) {
	l := &Loader{path: path, compiler: compiler.New()}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Path returns the catalog file path.
func (l *Loader) Path() string {
	return l.path
}

// Reload re-reads the catalog file. On error the previous routes are kept.
func (l *Loader) Reload() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	raw, err := Unmarshal(filepath.Ext(l.path), data)
	if err != nil {
		return err
	}
	catalog, err := compiler.DecodeCatalog(raw)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", l.path, err)
	}
	routes, err := l.compiler.CompileCatalog(catalog)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", l.path, err)
	}

	byID := make(map[string]domain.Route, len(routes))
	order := make([]string, 0, len(routes))
	for _, r := range routes {
		byID[r.ID] = r
		order = append(order, r.ID)
	}
	sort.Strings(order)

	l.mu.Lock()
	l.routes = byID
	l.order = order
	l.mu.Unlock()
	return nil
}

// GetRoute retrieves a compiled route by ID.
func (l *Loader) GetRoute(ctx context.Context, id string) (domain.Route, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.routes[id]
	if !ok {
		return domain.Route{}, fmt.Errorf("%w: %s", domain.ErrRouteNotFound, id)
	}
	return r, nil
}

// ListRoutes returns all route IDs in lexical order.
func (l *Loader) ListRoutes(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.order...), nil
}

// Watch signals whenever the catalog file is written, created or renamed.
// The directory is watched so editors that replace the file are seen too.
// The channel is closed when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", l.path, err)
	}

	target := filepath.Clean(l.path)
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				select {
				case ch <- struct{}{}:
				default: // a reload is already pending
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return ch, nil
}

// Unmarshal decodes a catalog document according to its file extension.
func Unmarshal(ext string, data []byte) (map[string]any, error) {
	raw := map[string]any{}
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRoute, err)
	}
	return raw, nil
}
