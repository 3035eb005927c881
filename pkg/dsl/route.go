package dsl

import (
	"time"

	"github.com/aretw0/passage/internal/dto"
)

// RouteBuilder provides a fluent API for configuring a route.
type RouteBuilder struct {
	spec dto.RouteSpec
}

// Describe sets a human readable description.
func (r *RouteBuilder) Describe(text string) *RouteBuilder {
	r.spec.Description = text
	return r
}

// Leave sets the hook run when the route is left.
func (r *RouteBuilder) Leave(h *HookBuilder) *RouteBuilder {
	r.spec.OnLeave = h.build()
	return r
}

// Enter sets the hook run when the route is entered.
func (r *RouteBuilder) Enter(h *HookBuilder) *RouteBuilder {
	r.spec.OnEnter = h.build()
	return r
}

// HookBuilder describes one declarative hook.
type HookBuilder struct {
	spec dto.HookSpec
}

// Pass is a hook that settles without a result.
func Pass() *HookBuilder {
	return &HookBuilder{}
}

// Result is a hook that settles with v.
func Result(v any) *HookBuilder {
	return &HookBuilder{spec: dto.HookSpec{Result: v}}
}

// Abort is a hook that aborts the navigation with reason.
func Abort(reason any) *HookBuilder {
	return &HookBuilder{spec: dto.HookSpec{Effect: dto.EffectAbort, Reason: reason}}
}

// Redirect is a hook that redirects the navigation to another route.
func Redirect(to string) *HookBuilder {
	return &HookBuilder{spec: dto.HookSpec{Effect: dto.EffectRedirect, To: to}}
}

// Cancel is a hook that cancels the navigation.
func Cancel() *HookBuilder {
	return &HookBuilder{spec: dto.HookSpec{Effect: dto.EffectCancel}}
}

// Fail is a hook that fails with message.
func Fail(message string) *HookBuilder {
	return &HookBuilder{spec: dto.HookSpec{Effect: dto.EffectFail, Error: message}}
}

// Guard is a hook whose verdict comes from a registered guard process.
func Guard(name string) *HookBuilder {
	return &HookBuilder{spec: dto.HookSpec{Run: name}}
}

// Returning sets the result the hook settles with after its effect.
func (h *HookBuilder) Returning(v any) *HookBuilder {
	h.spec.Result = v
	return h
}

// Deferred makes the hook return an awaitable.
func (h *HookBuilder) Deferred() *HookBuilder {
	h.spec.Convention = dto.ConventionDeferred
	return h
}

// Callback makes the hook settle by invoking its done callback.
func (h *HookBuilder) Callback() *HookBuilder {
	h.spec.Convention = dto.ConventionCallback
	return h
}

// After delays settling by d.
func (h *HookBuilder) After(d time.Duration) *HookBuilder {
	h.spec.Delay = d.String()
	return h
}

// Param adds a path parameter to a redirect.
func (h *HookBuilder) Param(key string, value any) *HookBuilder {
	if h.spec.Params == nil {
		h.spec.Params = make(map[string]any)
	}
	h.spec.Params[key] = value
	return h
}

// Query adds a query parameter to a redirect.
func (h *HookBuilder) Query(key string, value any) *HookBuilder {
	if h.spec.Query == nil {
		h.spec.Query = make(map[string]any)
	}
	h.spec.Query[key] = value
	return h
}

func (h *HookBuilder) build() *dto.HookSpec {
	if h == nil {
		return nil
	}
	spec := h.spec
	return &spec
}
