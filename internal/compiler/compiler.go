// Package compiler turns declarative route specs into executable routes.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/passage/internal/dto"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// ErrDeclaredFailure wraps errors produced by hooks declared with the "fail" effect.
var ErrDeclaredFailure = errors.New("declared hook failure")

// Decode converts a generic map (frontmatter, YAML, TOML) into a RouteSpec.
// Unknown keys are rejected.
func Decode(raw map[string]any) (dto.RouteSpec, error) {
	var spec dto.RouteSpec
	err := decode(raw, &spec)
	return spec, err
}

// DecodeCatalog converts a generic map holding a "routes" list into a Catalog.
func DecodeCatalog(raw map[string]any) (dto.Catalog, error) {
	var c dto.Catalog
	err := decode(raw, &c)
	return c, err
}

func decode(raw map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRoute, err)
	}
	return nil
}

// Compiler builds routes from specs.
type Compiler struct {
	executor ports.HookExecutor
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithExecutor enables hooks that delegate to external guards ("run").
func WithExecutor(x ports.HookExecutor) Option {
	return func(c *Compiler) {
		c.executor = x
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds a route with a default Compiler.
func Compile(spec dto.RouteSpec) (domain.Route, error) {
	return New().Compile(spec)
}

// CompileCatalog compiles a catalog with a default Compiler.
func CompileCatalog(c dto.Catalog) ([]domain.Route, error) {
	return New().CompileCatalog(c)
}

// Compile builds the route described by spec.
func (c *Compiler) Compile(spec dto.RouteSpec) (domain.Route, error) {
	if spec.ID == "" {
		return domain.Route{}, fmt.Errorf("%w: route missing ID", domain.ErrInvalidRoute)
	}
	route := domain.Route{ID: spec.ID}

	if spec.OnLeave != nil {
		b, err := c.behavior(spec.ID, domain.PhaseLeave, spec.OnLeave)
		if err != nil {
			return domain.Route{}, fmt.Errorf("route %q on_leave: %w", spec.ID, err)
		}
		route.OnLeave = b.leaveHook()
	}
	if spec.OnEnter != nil {
		b, err := c.behavior(spec.ID, domain.PhaseEnter, spec.OnEnter)
		if err != nil {
			return domain.Route{}, fmt.Errorf("route %q on_enter: %w", spec.ID, err)
		}
		route.OnEnter = b.enterHook()
	}
	return route, nil
}

// CompileCatalog compiles every route of a catalog, rejecting duplicate IDs.
func (c *Compiler) CompileCatalog(cat dto.Catalog) ([]domain.Route, error) {
	seen := make(map[string]bool, len(cat.Routes))
	routes := make([]domain.Route, 0, len(cat.Routes))
	for _, spec := range cat.Routes {
		if seen[spec.ID] {
			return nil, fmt.Errorf("%w: duplicate route %q", domain.ErrInvalidRoute, spec.ID)
		}
		seen[spec.ID] = true

		r, err := c.Compile(spec)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, nil
}

// behavior is a validated HookSpec.
type behavior struct {
	routeID    string
	phase      domain.Phase
	convention string
	delay      time.Duration
	result     any
	effect     effect

	guard    string
	executor ports.HookExecutor
}

func (c *Compiler) behavior(routeID string, phase domain.Phase, h *dto.HookSpec) (*behavior, error) {
	b := &behavior{
		routeID:    routeID,
		phase:      phase,
		convention: h.Convention,
		result:     h.Result,
		guard:      h.Run,
		executor:   c.executor,
	}

	switch b.convention {
	case "":
		b.convention = dto.ConventionSync
	case dto.ConventionSync, dto.ConventionDeferred, dto.ConventionCallback:
	default:
		return nil, fmt.Errorf("%w: unknown convention %q", domain.ErrInvalidRoute, h.Convention)
	}

	if h.Delay != "" {
		d, err := time.ParseDuration(h.Delay)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: invalid delay %q", domain.ErrInvalidRoute, h.Delay)
		}
		b.delay = d
	}

	if b.guard != "" {
		if b.executor == nil {
			return nil, fmt.Errorf("%w: guard %q needs an executor", domain.ErrInvalidRoute, b.guard)
		}
		if h.Effect != "" || h.Result != nil {
			return nil, fmt.Errorf("%w: guard %q cannot be combined with a static result or effect", domain.ErrInvalidRoute, b.guard)
		}
		return b, nil
	}

	e, err := parseEffect(domain.Verdict{
		Effect: h.Effect,
		Reason: h.Reason,
		To:     h.To,
		Params: h.Params,
		Query:  h.Query,
		Error:  h.Error,
	})
	if err != nil {
		return nil, err
	}
	b.effect = e
	return b, nil
}

// settle waits for the configured delay, applies the effect and yields the result.
func (b *behavior) settle(ctx context.Context, t *domain.Transition, params domain.Params, query domain.Query) (any, error) {
	if b.delay > 0 {
		timer := time.NewTimer(b.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if b.guard != "" {
		return b.consult(ctx, t, params, query)
	}
	if err := b.effect.apply(t); err != nil {
		return nil, err
	}
	return b.result, nil
}

// consult asks the external guard for a verdict and applies it.
func (b *behavior) consult(ctx context.Context, t *domain.Transition, params domain.Params, query domain.Query) (any, error) {
	verdict, err := b.executor.Execute(ctx, b.guard, domain.Invocation{
		Phase:        b.phase,
		RouteID:      b.routeID,
		Path:         t.Path(),
		TransitionID: t.ID(),
		Params:       params,
		Query:        query,
	})
	if err != nil {
		return nil, fmt.Errorf("guard %q: %w", b.guard, err)
	}
	e, err := parseEffect(verdict)
	if err != nil {
		return nil, fmt.Errorf("guard %q: %w", b.guard, err)
	}
	if err := e.apply(t); err != nil {
		return nil, err
	}
	return verdict.Result, nil
}

func (b *behavior) leaveHook() domain.LeaveHook {
	switch b.convention {
	case dto.ConventionCallback:
		return domain.LeaveCallback(func(ctx context.Context, t *domain.Transition, _ any, done domain.Done) {
			go func() {
				v, err := b.settle(ctx, t, nil, nil)
				done(err, v)
			}()
		})
	case dto.ConventionDeferred:
		return domain.LeaveFunc(func(ctx context.Context, t *domain.Transition, _ any) (any, error) {
			return domain.Async(func() (any, error) { return b.settle(ctx, t, nil, nil) }), nil
		})
	default:
		return domain.LeaveFunc(func(ctx context.Context, t *domain.Transition, _ any) (any, error) {
			return b.settle(ctx, t, nil, nil)
		})
	}
}

func (b *behavior) enterHook() domain.EnterHook {
	switch b.convention {
	case dto.ConventionCallback:
		return domain.EnterCallback(func(ctx context.Context, t *domain.Transition, p domain.Params, q domain.Query, done domain.Done) {
			go func() {
				v, err := b.settle(ctx, t, p, q)
				done(err, v)
			}()
		})
	case dto.ConventionDeferred:
		return domain.EnterFunc(func(ctx context.Context, t *domain.Transition, p domain.Params, q domain.Query) (any, error) {
			return domain.Async(func() (any, error) { return b.settle(ctx, t, p, q) }), nil
		})
	default:
		return domain.EnterFunc(func(ctx context.Context, t *domain.Transition, p domain.Params, q domain.Query) (any, error) {
			return b.settle(ctx, t, p, q)
		})
	}
}
