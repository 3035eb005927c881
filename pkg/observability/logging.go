package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/passage/pkg/domain"
)

// LogHooks returns lifecycle hooks that write events to logger.
// Hook activity is logged at Debug, settled navigations at Info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnHookStart: func(ctx context.Context, e *domain.HookEvent) {
			logger.DebugContext(ctx, "hook started",
				"transition_id", e.TransitionID,
				"phase", e.Phase,
				"route", e.RouteID,
				"convention", e.Convention,
			)
		},
		OnHookEnd: func(ctx context.Context, e *domain.HookEvent) {
			attrs := []any{
				"transition_id", e.TransitionID,
				"phase", e.Phase,
				"route", e.RouteID,
				"duration", e.Duration,
			}
			if e.AbortReason != nil {
				attrs = append(attrs, "abort", domain.ClassifyAbort(e.AbortReason))
			}
			if e.Err != nil {
				logger.DebugContext(ctx, "hook failed", append(attrs, "err", e.Err)...)
				return
			}
			logger.DebugContext(ctx, "hook settled", attrs...)
		},
		OnNavigationEnd: func(ctx context.Context, e *domain.NavigationEvent) {
			o := e.Outcome
			if o == nil {
				return
			}
			attrs := []any{
				"outcome_id", o.ID,
				"path", o.Request.Path,
				"status", o.Status,
				"phase", o.Phase,
				"duration", o.FinishedAt.Sub(o.StartedAt),
			}
			if o.Request.SessionID != "" {
				attrs = append(attrs, "session_id", o.Request.SessionID)
			}
			if o.Err != nil {
				attrs = append(attrs, "err", o.Err)
			}
			logger.InfoContext(ctx, "navigation settled", attrs...)
		},
	}
}
