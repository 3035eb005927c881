package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPhaseStart    EventType = "phase_start"
	EventPhaseEnd      EventType = "phase_end"
	EventHookStart     EventType = "hook_start"
	EventHookEnd       EventType = "hook_end"
	EventNavigationEnd EventType = "navigation_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp    time.Time `json:"timestamp"`
	Type         EventType `json:"type"`
	TransitionID string    `json:"transition_id"`
}

// PhaseEvent represents the start or end of a leave/enter chain.
type PhaseEvent struct {
	EventBase
	Phase  Phase  `json:"phase"`
	Path   string `json:"path"`
	Routes int    `json:"routes"`

	// Set on EventPhaseEnd only.
	Result   any           `json:"result,omitempty"`
	Err      error         `json:"-"`
	Aborted  bool          `json:"aborted,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// HookEvent represents the invocation of a single route hook.
type HookEvent struct {
	EventBase
	Phase      Phase      `json:"phase"`
	RouteID    string     `json:"route_id"`
	Index      int        `json:"index"`
	Convention Convention `json:"convention"`

	// Set on EventHookEnd only.
	Result      any           `json:"result,omitempty"`
	Err         error         `json:"-"`
	AbortReason any           `json:"-"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// NavigationEvent is emitted once a full leave/enter pipeline has settled.
type NavigationEvent struct {
	EventBase
	Outcome *Outcome `json:"outcome"`
}

// LifecycleHooks defines callbacks for orchestration observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnPhaseStart    func(context.Context, *PhaseEvent)
	OnPhaseEnd      func(context.Context, *PhaseEvent)
	OnHookStart     func(context.Context, *HookEvent)
	OnHookEnd       func(context.Context, *HookEvent)
	OnNavigationEnd func(context.Context, *NavigationEvent)
}

// ChainHooks returns hooks that invoke each of the given hook sets in order.
func ChainHooks(sets ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPhaseStart: func(ctx context.Context, e *PhaseEvent) {
			for _, s := range sets {
				if s.OnPhaseStart != nil {
					s.OnPhaseStart(ctx, e)
				}
			}
		},
		OnPhaseEnd: func(ctx context.Context, e *PhaseEvent) {
			for _, s := range sets {
				if s.OnPhaseEnd != nil {
					s.OnPhaseEnd(ctx, e)
				}
			}
		},
		OnHookStart: func(ctx context.Context, e *HookEvent) {
			for _, s := range sets {
				if s.OnHookStart != nil {
					s.OnHookStart(ctx, e)
				}
			}
		},
		OnHookEnd: func(ctx context.Context, e *HookEvent) {
			for _, s := range sets {
				if s.OnHookEnd != nil {
					s.OnHookEnd(ctx, e)
				}
			}
		},
		OnNavigationEnd: func(ctx context.Context, e *NavigationEvent) {
			for _, s := range sets {
				if s.OnNavigationEnd != nil {
					s.OnNavigationEnd(ctx, e)
				}
			}
		},
	}
}
