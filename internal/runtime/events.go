package runtime

import (
	"context"
	"time"

	"github.com/aretw0/passage/pkg/domain"
)

func (r *Runner) emitPhaseStart(ctx context.Context, t *domain.Transition, phase domain.Phase, routes int, at time.Time) {
	if r.hooks.OnPhaseStart == nil {
		return
	}
	r.hooks.OnPhaseStart(ctx, &domain.PhaseEvent{
		EventBase: domain.EventBase{
			Timestamp:    at,
			Type:         domain.EventPhaseStart,
			TransitionID: t.ID(),
		},
		Phase:  phase,
		Path:   t.Path(),
		Routes: routes,
	})
}

func (r *Runner) emitPhaseEnd(ctx context.Context, t *domain.Transition, phase domain.Phase, routes int, result any, err error, started time.Time) {
	if r.hooks.OnPhaseEnd == nil {
		return
	}
	now := r.now()
	r.hooks.OnPhaseEnd(ctx, &domain.PhaseEvent{
		EventBase: domain.EventBase{
			Timestamp:    now,
			Type:         domain.EventPhaseEnd,
			TransitionID: t.ID(),
		},
		Phase:    phase,
		Path:     t.Path(),
		Routes:   routes,
		Result:   result,
		Err:      err,
		Aborted:  t.Aborted(),
		Duration: now.Sub(started),
	})
}

func (r *Runner) emitHookStart(ctx context.Context, t *domain.Transition, phase domain.Phase, s step, at time.Time) {
	if r.hooks.OnHookStart == nil {
		return
	}
	r.hooks.OnHookStart(ctx, &domain.HookEvent{
		EventBase: domain.EventBase{
			Timestamp:    at,
			Type:         domain.EventHookStart,
			TransitionID: t.ID(),
		},
		Phase:      phase,
		RouteID:    s.routeID,
		Index:      s.index,
		Convention: s.convention,
	})
}

func (r *Runner) emitHookEnd(ctx context.Context, t *domain.Transition, phase domain.Phase, s step, result any, err error, started time.Time) {
	if r.hooks.OnHookEnd == nil {
		return
	}
	now := r.now()
	r.hooks.OnHookEnd(ctx, &domain.HookEvent{
		EventBase: domain.EventBase{
			Timestamp:    now,
			Type:         domain.EventHookEnd,
			TransitionID: t.ID(),
		},
		Phase:       phase,
		RouteID:     s.routeID,
		Index:       s.index,
		Convention:  s.convention,
		Result:      result,
		Err:         err,
		AbortReason: t.AbortReason(),
		Duration:    now.Sub(started),
	})
}
