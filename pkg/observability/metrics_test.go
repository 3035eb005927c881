package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/passage/internal/logging"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnHookStart(ctx, &domain.HookEvent{Phase: domain.PhaseLeave, Convention: domain.ConventionSync})
	hooks.OnHookEnd(ctx, &domain.HookEvent{Phase: domain.PhaseLeave, Convention: domain.ConventionSync, Duration: time.Millisecond})
	hooks.OnHookStart(ctx, &domain.HookEvent{Phase: domain.PhaseEnter, Convention: domain.ConventionCallback})
	hooks.OnHookEnd(ctx, &domain.HookEvent{Phase: domain.PhaseEnter, Convention: domain.ConventionCallback, RouteID: "inbox", Err: errors.New("boom")})
	hooks.OnPhaseEnd(ctx, &domain.PhaseEvent{Phase: domain.PhaseEnter, Err: errors.New("boom")})

	start := time.Now()
	hooks.OnNavigationEnd(ctx, &domain.NavigationEvent{Outcome: &domain.Outcome{
		Status:     domain.StatusRedirected,
		Phase:      domain.PhaseLeave,
		Request:    domain.NavigationRequest{RetryOf: "prev"},
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
	}})
	hooks.OnNavigationEnd(ctx, &domain.NavigationEvent{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.hooksTotal.WithLabelValues("leave", "sync")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.hooksTotal.WithLabelValues("enter", "callback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.hookFailures.WithLabelValues("enter", "inbox")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.navigations.WithLabelValues("redirected", "leave")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.abortsRecorded.WithLabelValues("leave", "redirected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retriesObserved))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_phase_duration_seconds")
	assert.Contains(t, names, "test_navigation_duration_seconds")
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriter(&buf, slog.LevelDebug, logging.FormatJSON)
	hooks := LogHooks(logger)
	ctx := context.Background()

	hooks.OnHookEnd(ctx, &domain.HookEvent{
		EventBase:   domain.EventBase{TransitionID: "t1"},
		Phase:       domain.PhaseLeave,
		RouteID:     "inbox",
		AbortReason: &domain.Cancellation{},
	})
	hooks.OnNavigationEnd(ctx, &domain.NavigationEvent{Outcome: &domain.Outcome{
		ID:      "o1",
		Status:  domain.StatusFailed,
		Request: domain.NavigationRequest{Path: "/inbox", SessionID: "s1"},
		Err:     errors.New("boom"),
	}})

	out := buf.String()
	assert.Contains(t, out, `"msg":"hook settled"`)
	assert.Contains(t, out, `"abort":"cancelled"`)
	assert.Contains(t, out, `"msg":"navigation settled"`)
	assert.Contains(t, out, `"session_id":"s1"`)
	assert.Contains(t, out, `"err":"boom"`)
}
