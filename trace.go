package passage

import (
	"context"
	"sync"

	"github.com/aretw0/passage/pkg/domain"
)

// tracer collects the steps of in-flight navigations keyed by transition ID.
// Phases run outside Navigate are not traced.
type tracer struct {
	mu    sync.Mutex
	steps map[string][]domain.Step
}

func newTracer() *tracer {
	return &tracer{steps: make(map[string][]domain.Step)}
}

func (tr *tracer) begin(transitionID string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.steps[transitionID] = []domain.Step{}
}

func (tr *tracer) end(transitionID string) []domain.Step {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	steps := tr.steps[transitionID]
	delete(tr.steps, transitionID)
	return steps
}

func (tr *tracer) record(e *domain.HookEvent) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	steps, ok := tr.steps[e.TransitionID]
	if !ok {
		return
	}
	s := domain.Step{
		Phase:      e.Phase,
		RouteID:    e.RouteID,
		Index:      e.Index,
		Convention: e.Convention,
		Result:     e.Result,
		Aborted:    e.AbortReason != nil,
		Duration:   e.Duration,
	}
	if e.Err != nil {
		s.Error = e.Err.Error()
	}
	tr.steps[e.TransitionID] = append(steps, s)
}

func (tr *tracer) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnHookEnd: func(_ context.Context, e *domain.HookEvent) {
			tr.record(e)
		},
	}
}
