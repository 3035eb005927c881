package domain

import (
	"errors"
	"fmt"
)

// ErrRouteNotFound is returned when a route ID cannot be resolved by a loader.
var ErrRouteNotFound = errors.New("route not found")

// ErrOutcomeNotFound is returned when an outcome ID cannot be found in the store.
var ErrOutcomeNotFound = errors.New("outcome not found")

// ErrInvalidRoute is returned when a route definition cannot be compiled.
var ErrInvalidRoute = errors.New("invalid route definition")

// ErrNoRetry is returned by Transition.Retry when no retry function was bound.
var ErrNoRetry = errors.New("transition has no retry function")

// ErrRetryInFlight is returned when a transition is retried before its own attempt settled.
var ErrRetryInFlight = errors.New("transition attempt still in flight")

// HookError reports the failure of a single hook step.
// The chain that produced it executed no further steps.
type HookError struct {
	Phase   Phase
	RouteID string
	Index   int
	Err     error
}

func (e *HookError) Error() string {
	route := e.RouteID
	if route == "" {
		route = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("%s hook of route '%s' failed: %v", e.Phase, route, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking hook.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("hook panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
