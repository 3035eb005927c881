package domain

import "context"

// Done settles a callback-style hook step.
// A non-nil err fails the chain; otherwise result feeds the next step.
type Done func(err error, result any)

// LeaveHook is a hook run when a route is being left.
// It is implemented only by LeaveFunc and LeaveCallback.
type LeaveHook interface {
	leaveConvention() Convention
}

// EnterHook is a hook run when a route is being entered.
// It is implemented only by EnterFunc and EnterCallback.
type EnterHook interface {
	enterConvention() Convention
}

// LeaveFunc is a leave hook whose return value settles its step.
// Returning an Awaitable makes the runner wait for its resolution.
type LeaveFunc func(ctx context.Context, t *Transition, component any) (any, error)

// LeaveCallback is a leave hook that settles its step by invoking done.
type LeaveCallback func(ctx context.Context, t *Transition, component any, done Done)

// EnterFunc is an enter hook whose return value settles its step.
// Returning an Awaitable makes the runner wait for its resolution.
type EnterFunc func(ctx context.Context, t *Transition, params Params, query Query) (any, error)

// EnterCallback is an enter hook that settles its step by invoking done.
type EnterCallback func(ctx context.Context, t *Transition, params Params, query Query, done Done)

func (LeaveFunc) leaveConvention() Convention     { return ConventionSync }
func (LeaveCallback) leaveConvention() Convention { return ConventionCallback }
func (EnterFunc) enterConvention() Convention     { return ConventionSync }
func (EnterCallback) enterConvention() Convention { return ConventionCallback }

// LeaveConvention returns the calling convention of h, or "" for a nil hook.
func LeaveConvention(h LeaveHook) Convention {
	if h == nil {
		return ""
	}
	return h.leaveConvention()
}

// EnterConvention returns the calling convention of h, or "" for a nil hook.
func EnterConvention(h EnterHook) Convention {
	if h == nil {
		return ""
	}
	return h.enterConvention()
}

// Route is a matched route entry. Either hook may be nil.
type Route struct {
	ID      string
	OnLeave LeaveHook
	OnEnter EnterHook
}
