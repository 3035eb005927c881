package runtime_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/passage/internal/runtime"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncLeave(v any) domain.LeaveHook {
	return domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, c any) (any, error) {
		return v, nil
	})
}

func TestLeave_LastResultWins(t *testing.T) {
	routes := []domain.Route{
		{ID: "a", OnLeave: syncLeave(1)},
		{ID: "b", OnLeave: syncLeave(2)},
	}

	result, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result)
}

func TestLeave_CallbackFailureShortCircuits(t *testing.T) {
	errX := errors.New("err")
	secondRan := false
	routes := []domain.Route{
		{ID: "a", OnLeave: domain.LeaveCallback(func(ctx context.Context, tr *domain.Transition, c any, done domain.Done) {
			done(errX, nil)
		})},
		{ID: "b", OnLeave: domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, c any) (any, error) {
			secondRan = true
			return 99, nil
		})},
	}

	result, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes, nil)
	assert.Nil(t, result)
	require.ErrorIs(t, err, errX)
	assert.False(t, secondRan, "second hook must not run after a failure")

	var hookErr *domain.HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, domain.PhaseLeave, hookErr.Phase)
	assert.Equal(t, "a", hookErr.RouteID)
	assert.Equal(t, 0, hookErr.Index)
}

func TestLeave_ForwardOrderAndComponents(t *testing.T) {
	var order []string
	var got []any
	record := func(id string) domain.LeaveHook {
		return domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, c any) (any, error) {
			order = append(order, id)
			got = append(got, c)
			return nil, nil
		})
	}
	routes := []domain.Route{
		{ID: "root", OnLeave: record("root")},
		{ID: "skip"},
		{ID: "inbox", OnLeave: record("inbox")},
		{ID: "message", OnLeave: record("message")},
	}

	_, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes, []any{"c-root", "c-skip", "c-inbox"})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "inbox", "message"}, order)
	assert.Equal(t, []any{"c-root", "c-inbox", nil}, got)
}

func TestLeave_NoHooks(t *testing.T) {
	result, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), []domain.Route{{ID: "a"}, {ID: "b"}}, nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestEnter_ReverseOrder(t *testing.T) {
	var order []string
	record := func(id string) domain.EnterHook {
		return domain.EnterFunc(func(ctx context.Context, tr *domain.Transition, p domain.Params, q domain.Query) (any, error) {
			order = append(order, id)
			return id, nil
		})
	}
	routes := []domain.Route{
		{ID: "A", OnEnter: record("A")},
		{ID: "B", OnEnter: record("B")},
	}

	result, err := runtime.NewRunner().Enter(context.Background(), domain.NewTransition("/", nil), routes, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, order)
	assert.Equal(t, "A", result)
	assert.Equal(t, "A", routes[0].ID, "input slice must keep its order")
}

func TestEnter_ArgumentsAndCallbackConvention(t *testing.T) {
	params := domain.Params{"id": 1}
	query := domain.Query{"q": "x"}
	routes := []domain.Route{
		{ID: "outer", OnEnter: domain.EnterFunc(func(ctx context.Context, tr *domain.Transition, p domain.Params, q domain.Query) (any, error) {
			assert.Equal(t, params, p)
			assert.Equal(t, query, q)
			return "outer", nil
		})},
		{ID: "inner", OnEnter: domain.EnterCallback(func(ctx context.Context, tr *domain.Transition, p domain.Params, q domain.Query, done domain.Done) {
			assert.Equal(t, params, p)
			assert.Equal(t, query, q)
			go done(nil, "inner")
		})},
	}

	var conventions []domain.Convention
	runner := runtime.NewRunner(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnHookStart: func(ctx context.Context, e *domain.HookEvent) {
			conventions = append(conventions, e.Convention)
		},
	}))

	result, err := runner.Enter(context.Background(), domain.NewTransition("/", nil), routes, params, query)
	require.NoError(t, err)
	assert.Equal(t, "outer", result)
	assert.Equal(t, []domain.Convention{domain.ConventionCallback, domain.ConventionSync}, conventions)
}

func TestEnter_FailureStopsChain(t *testing.T) {
	boom := errors.New("boom")
	outerRan := false
	routes := []domain.Route{
		{ID: "outer", OnEnter: domain.EnterFunc(func(ctx context.Context, tr *domain.Transition, p domain.Params, q domain.Query) (any, error) {
			outerRan = true
			return nil, nil
		})},
		{ID: "inner", OnEnter: domain.EnterCallback(func(ctx context.Context, tr *domain.Transition, p domain.Params, q domain.Query, done domain.Done) {
			done(boom, "ignored")
		})},
	}

	_, err := runtime.NewRunner().Enter(context.Background(), domain.NewTransition("/", nil), routes, nil, nil)
	require.ErrorIs(t, err, boom)
	assert.False(t, outerRan)

	var hookErr *domain.HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, 1, hookErr.Index, "index refers to the declared position")
}

func TestLeave_AwaitsDeferredResults(t *testing.T) {
	var order []string
	var mu sync.Mutex
	mark := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}

	routes := []domain.Route{
		{ID: "slow", OnLeave: domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, c any) (any, error) {
			return domain.Async(func() (any, error) {
				time.Sleep(20 * time.Millisecond)
				mark("slow:resolved")
				return "slow", nil
			}), nil
		})},
		{ID: "fast", OnLeave: domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, c any) (any, error) {
			mark("fast:start")
			return domain.Resolved(domain.Resolved("nested")), nil
		})},
	}

	result, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes, nil)
	require.NoError(t, err)
	assert.Equal(t, "nested", result)
	assert.Equal(t, []string{"slow:resolved", "fast:start"}, order)
}

func TestLeave_RejectedDeferredFails(t *testing.T) {
	boom := errors.New("rejected")
	routes := []domain.Route{
		{ID: "a", OnLeave: domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, c any) (any, error) {
			return domain.Rejected(boom), nil
		})},
	}
	_, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes, nil)
	assert.ErrorIs(t, err, boom)
}

func TestLeave_HooksNeverOverlap(t *testing.T) {
	var active, maxActive int32
	hook := domain.LeaveCallback(func(ctx context.Context, tr *domain.Transition, c any, done domain.Done) {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		go func() {
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			done(nil, nil)
		}()
	})
	routes := make([]domain.Route, 10)
	for i := range routes {
		routes[i] = domain.Route{OnLeave: hook}
	}

	_, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestLeave_DoneSettlesOnce(t *testing.T) {
	routes := []domain.Route{
		{ID: "a", OnLeave: domain.LeaveCallback(func(ctx context.Context, tr *domain.Transition, c any, done domain.Done) {
			done(nil, "first")
			done(errors.New("late"), nil)
			done(nil, "second")
		})},
	}
	result, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", result)
}

func TestLeave_PanicBecomesFailure(t *testing.T) {
	routes := []domain.Route{
		{ID: "a", OnLeave: domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, c any) (any, error) {
			panic("kaput")
		})},
		{ID: "b", OnLeave: domain.LeaveCallback(func(ctx context.Context, tr *domain.Transition, c any, done domain.Done) {
			tr.Abort("must not run")
		})},
	}
	tr := domain.NewTransition("/", nil)
	_, err := runtime.NewRunner().Leave(context.Background(), tr, routes, nil)

	var pe *domain.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaput", pe.Value)
	assert.False(t, tr.Aborted())
}

func TestLeave_CallbackPanicAfterDoneKeepsSettlement(t *testing.T) {
	routes := []domain.Route{
		{ID: "a", OnLeave: domain.LeaveCallback(func(ctx context.Context, tr *domain.Transition, c any, done domain.Done) {
			done(nil, "ok")
			panic("after done")
		})},
	}
	result, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestLeave_AbortDoesNotStopChain(t *testing.T) {
	var ran []string
	routes := []domain.Route{
		{ID: "a", OnLeave: domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, c any) (any, error) {
			ran = append(ran, "a")
			tr.Redirect("login", nil, nil)
			return nil, nil
		})},
		{ID: "b", OnLeave: domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, c any) (any, error) {
			ran = append(ran, "b")
			tr.Cancel()
			return "b", nil
		})},
	}
	tr := domain.NewTransition("/", nil)
	result, err := runtime.NewRunner().Leave(context.Background(), tr, routes, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", result)
	assert.Equal(t, []string{"a", "b"}, ran)

	r, ok := domain.IsRedirect(tr.AbortReason())
	require.True(t, ok)
	assert.Equal(t, "login", r.To)
}

func TestLeave_StalledHookStopsOnContext(t *testing.T) {
	routes := []domain.Route{
		{ID: "stall", OnLeave: domain.LeaveCallback(func(ctx context.Context, tr *domain.Transition, c any, done domain.Done) {})},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := runtime.NewRunner().Leave(ctx, domain.NewTransition("/", nil), routes, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLeave_CancelledContextSkipsRemainingHooks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	secondRan := false
	routes := []domain.Route{
		{ID: "a", OnLeave: domain.LeaveFunc(func(context.Context, *domain.Transition, any) (any, error) {
			cancel()
			return nil, nil
		})},
		{ID: "b", OnLeave: domain.LeaveFunc(func(context.Context, *domain.Transition, any) (any, error) {
			secondRan = true
			return nil, nil
		})},
	}
	_, err := runtime.NewRunner().Leave(ctx, domain.NewTransition("/", nil), routes, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, secondRan)
}

func TestLeave_TypedNilHookIsSkipped(t *testing.T) {
	var nilHook domain.LeaveFunc
	result, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), []domain.Route{
		{ID: "nil", OnLeave: nilHook},
		{ID: "ok", OnLeave: syncLeave("ok")},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestAsync_CallbackFiresExactlyOnce(t *testing.T) {
	errX := errors.New("err")
	routes := []domain.Route{
		{ID: "a", OnLeave: domain.LeaveCallback(func(ctx context.Context, tr *domain.Transition, c any, done domain.Done) {
			done(errX, nil)
		})},
		{ID: "b", OnLeave: syncLeave(99)},
	}

	var calls int32
	results := make(chan error, 2)
	runtime.NewRunner().LeaveAsync(context.Background(), domain.NewTransition("/", nil), routes, nil, func(result any, err error) {
		atomic.AddInt32(&calls, 1)
		assert.Nil(t, result)
		results <- err
	})

	select {
	case err := <-results:
		assert.ErrorIs(t, err, errX)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAsync_EnterSuccess(t *testing.T) {
	done := make(chan any, 1)
	routes := []domain.Route{
		{ID: "a", OnEnter: domain.EnterFunc(func(ctx context.Context, tr *domain.Transition, p domain.Params, q domain.Query) (any, error) {
			return "a", nil
		})},
	}
	runtime.NewRunner().EnterAsync(context.Background(), domain.NewTransition("/", nil), routes, nil, nil, func(result any, err error) {
		assert.NoError(t, err)
		done <- result
	})
	select {
	case v := <-done:
		assert.Equal(t, "a", v)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}

func TestRunner_LifecycleEvents(t *testing.T) {
	var events []domain.EventType
	var lastHook *domain.HookEvent
	var phaseEnd *domain.PhaseEvent
	hooks := domain.LifecycleHooks{
		OnPhaseStart: func(ctx context.Context, e *domain.PhaseEvent) { events = append(events, e.Type) },
		OnPhaseEnd: func(ctx context.Context, e *domain.PhaseEvent) {
			events = append(events, e.Type)
			phaseEnd = e
		},
		OnHookStart: func(ctx context.Context, e *domain.HookEvent) { events = append(events, e.Type) },
		OnHookEnd: func(ctx context.Context, e *domain.HookEvent) {
			events = append(events, e.Type)
			lastHook = e
		},
	}
	routes := []domain.Route{
		{ID: "a", OnLeave: domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, c any) (any, error) {
			tr.Cancel()
			return "a", nil
		})},
	}
	tr := domain.NewTransition("/x", nil)
	_, err := runtime.NewRunner(runtime.WithLifecycleHooks(hooks)).Leave(context.Background(), tr, routes, nil)
	require.NoError(t, err)

	assert.Equal(t, []domain.EventType{
		domain.EventPhaseStart, domain.EventHookStart, domain.EventHookEnd, domain.EventPhaseEnd,
	}, events)
	require.NotNil(t, lastHook)
	assert.True(t, domain.IsCancellation(lastHook.AbortReason))
	assert.Equal(t, tr.ID(), lastHook.TransitionID)
	require.NotNil(t, phaseEnd)
	assert.True(t, phaseEnd.Aborted)
	assert.Equal(t, "a", phaseEnd.Result)
}

type panickingAwait struct{}

func (panickingAwait) Await(context.Context) (any, error) { panic("boom") }

func TestLeave_PanicInAwaitBecomesFailure(t *testing.T) {
	routes := []domain.Route{
		{ID: "a", OnLeave: syncLeave(panickingAwait{})},
		{ID: "b", OnLeave: domain.LeaveCallback(func(ctx context.Context, tr *domain.Transition, c any, done domain.Done) {
			done(nil, panickingAwait{})
		})},
	}

	_, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes, nil)
	var pe *domain.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)

	var he *domain.HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "a", he.RouteID)

	_, err = runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes[1:], nil)
	require.ErrorAs(t, err, &pe)
}

func TestLeave_NilDeferredResolvesToNil(t *testing.T) {
	var pending *domain.Deferred
	routes := []domain.Route{{ID: "a", OnLeave: syncLeave(pending)}}

	result, err := runtime.NewRunner().Leave(context.Background(), domain.NewTransition("/", nil), routes, nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAsync_PanicInAwaitStillCallsBack(t *testing.T) {
	routes := []domain.Route{{ID: "a", OnLeave: syncLeave(panickingAwait{})}}

	results := make(chan error, 1)
	runtime.NewRunner().LeaveAsync(context.Background(), domain.NewTransition("/", nil), routes, nil, func(_ any, err error) {
		results <- err
	})

	select {
	case err := <-results:
		var pe *domain.PanicError
		assert.ErrorAs(t, err, &pe)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}
