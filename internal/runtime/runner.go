package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/passage/internal/logging"
	"github.com/aretw0/passage/pkg/domain"
)

// Callback receives the settlement of a phase. It is invoked exactly once.
type Callback func(result any, err error)

// Runner executes the leave and enter hook chains of a transition.
// A Runner holds no per-transition state and is safe for concurrent use.
type Runner struct {
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for events and durations.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a hook runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Leave runs the leave hooks of routes in declared order (outer to inner).
// components[i] is handed to the hook of routes[i]; missing positions get nil.
// It returns the last hook's result, or the first failure.
func (r *Runner) Leave(ctx context.Context, t *domain.Transition, routes []domain.Route, components []any) (any, error) {
	steps := make([]step, 0, len(routes))
	for i, route := range routes {
		if !hasLeave(route.OnLeave) {
			continue
		}
		steps = append(steps, leaveStep(i, route, componentAt(components, i)))
	}
	return r.run(ctx, t, domain.PhaseLeave, len(routes), steps)
}

// Enter runs the enter hooks of routes in reverse declared order, so the most
// specific route enters first. The routes slice itself is not reordered.
func (r *Runner) Enter(ctx context.Context, t *domain.Transition, routes []domain.Route, params domain.Params, query domain.Query) (any, error) {
	steps := make([]step, 0, len(routes))
	for i := len(routes) - 1; i >= 0; i-- {
		route := routes[i]
		if !hasEnter(route.OnEnter) {
			continue
		}
		steps = append(steps, enterStep(i, route, params, query))
	}
	return r.run(ctx, t, domain.PhaseEnter, len(routes), steps)
}

// LeaveAsync runs Leave on its own goroutine and reports through cb.
func (r *Runner) LeaveAsync(ctx context.Context, t *domain.Transition, routes []domain.Route, components []any, cb Callback) {
	go func() {
		result, err := r.Leave(ctx, t, routes, components)
		if cb != nil {
			cb(result, err)
		}
	}()
}

// EnterAsync runs Enter on its own goroutine and reports through cb.
func (r *Runner) EnterAsync(ctx context.Context, t *domain.Transition, routes []domain.Route, params domain.Params, query domain.Query, cb Callback) {
	go func() {
		result, err := r.Enter(ctx, t, routes, params, query)
		if cb != nil {
			cb(result, err)
		}
	}()
}

func componentAt(components []any, i int) any {
	if i < len(components) {
		return components[i]
	}
	return nil
}

// run executes steps strictly one after another.
// PENDING -> RUNNING_STEP_i -> {RUNNING_STEP_i+1 | FAILED | SUCCEEDED}
func (r *Runner) run(ctx context.Context, t *domain.Transition, phase domain.Phase, routes int, steps []step) (any, error) {
	started := r.now()
	r.emitPhaseStart(ctx, t, phase, routes, started)
	r.logger.DebugContext(ctx, "phase started",
		"phase", phase,
		"transition_id", t.ID(),
		"path", t.Path(),
		"hooks", len(steps),
	)

	var result any
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, t, phase, routes, started, s, err)
		}

		hookStarted := r.now()
		r.emitHookStart(ctx, t, phase, s, hookStarted)

		value, err := s.invoke(ctx, t)

		r.emitHookEnd(ctx, t, phase, s, value, err, hookStarted)
		if err != nil {
			return r.fail(ctx, t, phase, routes, started, s, err)
		}
		result = value
	}

	r.emitPhaseEnd(ctx, t, phase, routes, result, nil, started)
	r.logger.DebugContext(ctx, "phase succeeded",
		"phase", phase,
		"transition_id", t.ID(),
		"aborted", t.Aborted(),
	)
	return result, nil
}

func (r *Runner) fail(ctx context.Context, t *domain.Transition, phase domain.Phase, routes int, started time.Time, s step, cause error) (any, error) {
	err := &domain.HookError{
		Phase:   phase,
		RouteID: s.routeID,
		Index:   s.index,
		Err:     cause,
	}
	r.emitPhaseEnd(ctx, t, phase, routes, nil, err, started)
	r.logger.DebugContext(ctx, "phase failed",
		"phase", phase,
		"transition_id", t.ID(),
		"route", s.routeID,
		"err", cause,
	)
	return nil, err
}
