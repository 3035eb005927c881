package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/passage/pkg/domain"
)

// step is one hook adapted to a uniform settle-once signature.
type step struct {
	index      int
	routeID    string
	convention domain.Convention
	invoke     func(ctx context.Context, t *domain.Transition) (any, error)
}

type settlement struct {
	value any
	err   error
}

func leaveStep(index int, route domain.Route, component any) step {
	s := step{
		index:      index,
		routeID:    route.ID,
		convention: domain.LeaveConvention(route.OnLeave),
	}
	switch hook := route.OnLeave.(type) {
	case domain.LeaveFunc:
		s.invoke = func(ctx context.Context, t *domain.Transition) (any, error) {
			return callSync(ctx, func() (any, error) { return hook(ctx, t, component) })
		}
	case domain.LeaveCallback:
		s.invoke = func(ctx context.Context, t *domain.Transition) (any, error) {
			return callWithDone(ctx, func(done domain.Done) { hook(ctx, t, component, done) })
		}
	default:
		s.invoke = unsupported(route.OnLeave)
	}
	return s
}

func enterStep(index int, route domain.Route, params domain.Params, query domain.Query) step {
	s := step{
		index:      index,
		routeID:    route.ID,
		convention: domain.EnterConvention(route.OnEnter),
	}
	switch hook := route.OnEnter.(type) {
	case domain.EnterFunc:
		s.invoke = func(ctx context.Context, t *domain.Transition) (any, error) {
			return callSync(ctx, func() (any, error) { return hook(ctx, t, params, query) })
		}
	case domain.EnterCallback:
		s.invoke = func(ctx context.Context, t *domain.Transition) (any, error) {
			return callWithDone(ctx, func(done domain.Done) { hook(ctx, t, params, query, done) })
		}
	default:
		s.invoke = unsupported(route.OnEnter)
	}
	return s
}

func unsupported(hook any) func(context.Context, *domain.Transition) (any, error) {
	return func(context.Context, *domain.Transition) (any, error) {
		return nil, fmt.Errorf("%w: unsupported hook type %T", domain.ErrInvalidRoute, hook)
	}
}

// hasLeave reports whether h is a usable leave hook. Typed nil functions count as absent.
func hasLeave(h domain.LeaveHook) bool {
	switch fn := h.(type) {
	case nil:
		return false
	case domain.LeaveFunc:
		return fn != nil
	case domain.LeaveCallback:
		return fn != nil
	}
	return true
}

// hasEnter reports whether h is a usable enter hook. Typed nil functions count as absent.
func hasEnter(h domain.EnterHook) bool {
	switch fn := h.(type) {
	case nil:
		return false
	case domain.EnterFunc:
		return fn != nil
	case domain.EnterCallback:
		return fn != nil
	}
	return true
}

// callSync invokes a return-value hook and awaits any Awaitable it yields.
func callSync(ctx context.Context, fn func() (any, error)) (value any, err error) {
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				value, err = nil, &domain.PanicError{Value: rec}
			}
		}()
		value, err = fn()
	}()
	if err != nil {
		return nil, err
	}
	return await(ctx, value)
}

// await unwraps nested Awaitables until a plain value remains.
// A panicking Await fails the step with a PanicError.
func await(ctx context.Context, value any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result, err = nil, &domain.PanicError{Value: rec}
		}
	}()
	for {
		pending, ok := value.(domain.Awaitable)
		if !ok || pending == nil {
			return value, nil
		}
		value, err = pending.Await(ctx)
		if err != nil {
			return nil, err
		}
	}
}

// callWithDone invokes a callback-style hook and waits for its first settlement.
// A hook that never calls done blocks until ctx is done.
func callWithDone(ctx context.Context, fn func(done domain.Done)) (any, error) {
	settled := make(chan settlement, 1)
	var once sync.Once
	settle := func(s settlement) {
		once.Do(func() { settled <- s })
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				settle(settlement{err: &domain.PanicError{Value: rec}})
			}
		}()
		fn(func(err error, result any) {
			settle(settlement{value: result, err: err})
		})
	}()

	select {
	case s := <-settled:
		if s.err != nil {
			return nil, s.err
		}
		return await(ctx, s.value)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
