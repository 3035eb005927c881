package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/passage"
	"github.com/aretw0/passage/internal/config"
	"github.com/aretw0/passage/pkg/adapters/file"
	"github.com/aretw0/passage/pkg/adapters/loam"
	"github.com/aretw0/passage/pkg/adapters/memory"
	"github.com/aretw0/passage/pkg/adapters/process"
	"github.com/aretw0/passage/pkg/adapters/redis"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/observability"
	"github.com/aretw0/passage/pkg/persistence/middleware"
	"github.com/aretw0/passage/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Runtime bundles an engine with the adapters built from a Config.
type Runtime struct {
	Engine   *passage.Engine
	Loader   ports.RouteLoader
	Store    ports.OutcomeStore
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// reloader is implemented by loaders that cache their catalog.
type reloader interface {
	Reload() error
}

// NewRuntime initializes an engine with standard CLI conventions:
// a directory catalog is read through loam, a file through the file loader.
func NewRuntime(cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	}

	loader, err := newLoader(cfg)
	if err != nil {
		return nil, err
	}
	rt.Loader = loader

	store, locker, closer, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	store, err = secureStore(cfg.Store, store)
	if err != nil {
		return nil, err
	}
	rt.Store = store
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}

	metrics := observability.NewMetrics(observability.WithRegistry(rt.Registry))
	opts := []passage.Option{
		passage.WithLogger(logger),
		passage.WithLoader(loader),
		passage.WithStore(store),
		passage.WithLockTTL(cfg.Store.LockTTL),
		passage.WithLifecycleHooks(domain.ChainHooks(
			observability.LogHooks(logger),
			metrics.Hooks(),
		)),
	}
	if locker != nil {
		opts = append(opts, passage.WithLocker(locker))
	}
	rt.Engine = passage.New(opts...)
	return rt, nil
}

// Close releases store connections.
func (rt *Runtime) Close() error {
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Reload re-reads a cached catalog. Loaders that read through are left alone.
func (rt *Runtime) Reload() error {
	if r, ok := rt.Loader.(reloader); ok {
		return r.Reload()
	}
	return nil
}

// WatchAndReload reloads the catalog whenever it changes until ctx is done.
// It returns immediately when the loader cannot be watched.
func (rt *Runtime) WatchAndReload(ctx context.Context) {
	changes, err := rt.Engine.Watch(ctx)
	if err != nil {
		rt.Logger.Debug("Catalog watching disabled", "err", err)
		return
	}
	for range changes {
		if err := rt.Reload(); err != nil {
			rt.Logger.Warn("Catalog reload failed, keeping previous routes", "err", err)
			continue
		}
		rt.Logger.Info("Catalog reloaded")
	}
}

func newLoader(cfg config.Config) (ports.RouteLoader, error) {
	if cfg.Catalog == "" {
		return memory.NewLoader()
	}

	executor, err := newExecutor(cfg)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if info.IsDir() {
		var opts []loam.Option
		if executor != nil {
			opts = append(opts, loam.WithExecutor(executor))
		}
		return loam.Open(cfg.Catalog, opts...)
	}

	var opts []file.LoaderOption
	if executor != nil {
		opts = append(opts, file.WithExecutor(executor))
	}
	return file.NewLoader(cfg.Catalog, opts...)
}

func newStore(cfg config.Config) (ports.OutcomeStore, ports.DistributedLocker, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return file.NewStore(cfg.Store.Path), nil, nil, nil
	case config.BackendRedis:
		rc := cfg.Store.Redis
		store := redis.New(rc.Addr, rc.Password, rc.DB,
			redis.WithPrefix(rc.Prefix),
			redis.WithTTL(rc.TTL),
		)
		return store, redis.NewLocker(store.Client(), rc.Prefix), store.Close, nil
	case config.BackendMemory, "":
		return memory.NewStore(), nil, nil, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// newExecutor builds the process runner for the guards file, if any.
func newExecutor(cfg config.Config) (ports.HookExecutor, error) {
	if cfg.Guards == "" {
		return nil, nil
	}
	guards, err := process.LoadGuards(cfg.Guards)
	if err != nil {
		return nil, err
	}
	return process.NewRunner(
		process.WithRegistry(guards),
		process.WithBaseDir(filepath.Dir(cfg.Guards)),
	), nil
}

// secureStore wraps store with the redaction and encryption middlewares the
// configuration asks for.
func secureStore(cfg config.StoreConfig, store ports.OutcomeStore) (ports.OutcomeStore, error) {
	active, fallbacks, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Redact))
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
	}
	return middleware.Chain(store, mws...), nil
}
