package passage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/passage/internal/logging"
	"github.com/aretw0/passage/internal/runtime"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
	"github.com/aretw0/passage/pkg/session"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// ErrNoLoader is returned by operations that resolve routes when no loader was configured.
var ErrNoLoader = errors.New("no route loader configured")

// Callback receives the settled result of an asynchronous phase.
type Callback = runtime.Callback

// Engine is the high-level entry point for the Passage library.
// It wraps the hook runner and drives full leave/enter navigations.
type Engine struct {
	runner   *runtime.Runner
	loader   ports.RouteLoader
	store    ports.OutcomeStore
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	sessions *session.Manager
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
	traces   *tracer
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLoader sets the loader used to resolve route IDs of navigation requests.
func WithLoader(l ports.RouteLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore enables outcome persistence.
func WithStore(s ports.OutcomeStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serialises navigations of a session across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLockTTL bounds how long a distributed session lock is held.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New initializes a new Passage Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		now:    time.Now,
		traces: newTracer(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.runner = runtime.NewRunner(
		runtime.WithLifecycleHooks(domain.ChainHooks(e.hooks, e.traces.hooks())),
		runtime.WithLogger(e.logger),
		runtime.WithClock(e.now),
	)

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	if e.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(e.lockTTL))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)
	return e
}

// Leave runs the leave hooks of routes in declared order.
func (e *Engine) Leave(ctx context.Context, t *domain.Transition, routes []domain.Route, components []any) (any, error) {
	return e.runner.Leave(ctx, t, routes, components)
}

// Enter runs the enter hooks of routes in reverse declared order.
func (e *Engine) Enter(ctx context.Context, t *domain.Transition, routes []domain.Route, params domain.Params, query domain.Query) (any, error) {
	return e.runner.Enter(ctx, t, routes, params, query)
}

// LeaveAsync is Leave reporting its result to cb exactly once.
func (e *Engine) LeaveAsync(ctx context.Context, t *domain.Transition, routes []domain.Route, components []any, cb Callback) {
	e.runner.LeaveAsync(ctx, t, routes, components, cb)
}

// EnterAsync is Enter reporting its result to cb exactly once.
func (e *Engine) EnterAsync(ctx context.Context, t *domain.Transition, routes []domain.Route, params domain.Params, query domain.Query, cb Callback) {
	e.runner.EnterAsync(ctx, t, routes, params, query, cb)
}

// Navigate resolves the routes of req and drives them through the leave and
// enter phases. Hook failures and aborts are reported in the outcome; the
// returned error is reserved for unknown routes and lock or store failures.
func (e *Engine) Navigate(ctx context.Context, req domain.NavigationRequest) (*domain.Outcome, error) {
	if e.loader == nil {
		return nil, ErrNoLoader
	}
	from, err := e.resolve(ctx, req.From)
	if err != nil {
		return nil, err
	}
	to, err := e.resolve(ctx, req.To)
	if err != nil {
		return nil, err
	}
	if req.Attempt < 1 {
		req.Attempt = 1
	}

	// Retries bound to the transition are refused until the outcome is saved
	// and the session lock released.
	settled := atomic.NewBool(false)
	defer settled.Store(true)

	var outcome *domain.Outcome
	err = e.sessions.WithLock(ctx, req.SessionID, func(ctx context.Context) error {
		outcome = e.attempt(ctx, req, from, to, settled)
		if e.store == nil {
			return nil
		}
		if err := e.store.Save(ctx, outcome); err != nil {
			return fmt.Errorf("failed to save outcome: %w", err)
		}
		return nil
	})
	return outcome, err
}

// Retry re-navigates the request of a persisted outcome as its next attempt.
func (e *Engine) Retry(ctx context.Context, outcomeID string) (*domain.Outcome, error) {
	prev, err := e.sessions.Load(ctx, outcomeID)
	if err != nil {
		return nil, err
	}
	return e.Navigate(ctx, nextAttempt(prev.Request, prev.ID))
}

// Outcome loads a persisted outcome.
func (e *Engine) Outcome(ctx context.Context, id string) (*domain.Outcome, error) {
	return e.sessions.Load(ctx, id)
}

// Outcomes lists the IDs of persisted outcomes.
func (e *Engine) Outcomes(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// History returns the outcomes of a session, oldest first.
func (e *Engine) History(ctx context.Context, sessionID string) ([]*domain.Outcome, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.sessions.History(ctx, sessionID)
}

// DeleteOutcome removes a persisted outcome.
func (e *Engine) DeleteOutcome(ctx context.Context, id string) error {
	if e.store == nil {
		return domain.ErrOutcomeNotFound
	}
	return e.sessions.Delete(ctx, id)
}

// Routes lists the route IDs known to the loader.
func (e *Engine) Routes(ctx context.Context) ([]string, error) {
	if e.loader == nil {
		return nil, ErrNoLoader
	}
	return e.loader.ListRoutes(ctx)
}

// Watch returns a channel that signals when the route catalog changes.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Loader returns the underlying RouteLoader used by the engine.
func (e *Engine) Loader() ports.RouteLoader {
	return e.loader
}

func (e *Engine) resolve(ctx context.Context, ids []string) ([]domain.Route, error) {
	routes := make([]domain.Route, 0, len(ids))
	for _, id := range ids {
		r, err := e.loader.GetRoute(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve route %q: %w", id, err)
		}
		routes = append(routes, r)
	}
	return routes, nil
}

// attempt runs one navigation. The phase checks follow the router contract:
// a failed or aborted leave phase skips the enter phase.
func (e *Engine) attempt(ctx context.Context, req domain.NavigationRequest, from, to []domain.Route, settled *atomic.Bool) *domain.Outcome {
	o := &domain.Outcome{
		ID:        uuid.NewString(),
		Request:   req,
		StartedAt: e.now(),
	}

	t := domain.NewTransition(req.Path, func(*domain.Transition) error {
		if !settled.Load() {
			return domain.ErrRetryInFlight
		}
		_, err := e.Navigate(context.WithoutCancel(ctx), nextAttempt(req, o.ID))
		return err
	})

	e.traces.begin(t.ID())
	e.logger.Debug("Navigation started",
		"outcome_id", o.ID,
		"transition_id", t.ID(),
		"path", req.Path,
		"attempt", req.Attempt,
	)

	_, err := e.runner.Leave(ctx, t, from, req.Components)
	e.settle(o, t, domain.PhaseLeave, err)
	if !o.Settled() {
		result, err := e.runner.Enter(ctx, t, to, req.Params, req.Query)
		e.settle(o, t, domain.PhaseEnter, err)
		if !o.Settled() {
			o.Complete(result)
		}
	}

	o.Trace = e.traces.end(t.ID())
	o.FinishedAt = e.now()

	if e.hooks.OnNavigationEnd != nil {
		e.hooks.OnNavigationEnd(ctx, &domain.NavigationEvent{
			EventBase: domain.EventBase{
				Timestamp:    o.FinishedAt,
				Type:         domain.EventNavigationEnd,
				TransitionID: t.ID(),
			},
			Outcome: o,
		})
	}
	e.logger.Debug("Navigation settled",
		"outcome_id", o.ID,
		"status", o.Status,
		"phase", o.Phase,
	)
	return o
}

func (e *Engine) settle(o *domain.Outcome, t *domain.Transition, phase domain.Phase, err error) {
	switch {
	case err != nil:
		o.Fail(phase, err)
	case t.Aborted():
		o.AbortWith(phase, t.AbortReason())
	}
}

func nextAttempt(req domain.NavigationRequest, outcomeID string) domain.NavigationRequest {
	next := req
	if next.Attempt < 1 {
		next.Attempt = 1
	}
	next.Attempt++
	next.RetryOf = outcomeID
	return next
}

var _ ports.Navigator = (*Engine)(nil)
