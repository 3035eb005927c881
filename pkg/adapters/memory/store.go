package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/passage/pkg/domain"
)

// Store implements ports.OutcomeStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Outcome
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Outcome),
	}
}

// Save persists the outcome in memory.
func (s *Store) Save(ctx context.Context, outcome *domain.Outcome) error {
	copied := clone(outcome)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[outcome.ID] = copied
	return nil
}

// Load retrieves the outcome from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outcome, ok := s.data[id]
	if !ok {
		return nil, domain.ErrOutcomeNotFound
	}

	// Copy on read so callers can't mutate stored outcomes through the pointer
	return clone(outcome), nil
}

// Delete removes the outcome.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored outcome IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// clone copies the parts of an outcome a caller could mutate in place.
// Hook results are stored as-is.
func clone(o *domain.Outcome) *domain.Outcome {
	c := *o
	c.Request.From = append([]string(nil), o.Request.From...)
	c.Request.To = append([]string(nil), o.Request.To...)
	c.Request.Components = append([]any(nil), o.Request.Components...)
	c.Request.Params = copyMap(o.Request.Params)
	c.Request.Query = copyMap(o.Request.Query)
	c.Trace = append([]domain.Step(nil), o.Trace...)
	if o.Redirect != nil {
		r := *o.Redirect
		r.Params = copyMap(o.Redirect.Params)
		r.Query = copyMap(o.Redirect.Query)
		c.Redirect = &r
	}
	return &c
}

func copyMap[M ~map[string]any](m M) M {
	if m == nil {
		return nil
	}
	out := make(M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
