package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
)

const mask = "***"

type piiMiddleware struct {
	next     ports.OutcomeStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching
// the patterns in the params, query and results recorded by an outcome.
// It panics if a pattern does not compile.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.OutcomeStore) ports.OutcomeStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, outcome *domain.Outcome) error {
	// The engine still holds outcome; only the stored copy is masked.
	cloned := *outcome
	cloned.Request.Params = m.maskMap(outcome.Request.Params)
	cloned.Request.Query = m.maskMap(outcome.Request.Query)
	cloned.Result = m.maskValue(outcome.Result)
	if outcome.Redirect != nil {
		r := *outcome.Redirect
		r.Params = m.maskMap(r.Params)
		r.Query = m.maskMap(r.Query)
		cloned.Redirect = &r
	}
	if outcome.Trace != nil {
		cloned.Trace = make([]domain.Step, len(outcome.Trace))
		for i, s := range outcome.Trace {
			s.Result = m.maskValue(s.Result)
			cloned.Trace[i] = s
		}
	}
	return m.next.Save(ctx, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (*domain.Outcome, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// maskMap returns a masked deep copy of src.
func (m *piiMiddleware) maskMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		if m.matches(k) {
			out[k] = mask
			continue
		}
		out[k] = m.maskValue(v)
	}
	return out
}

func (m *piiMiddleware) maskValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return m.maskMap(t)
	case domain.Params:
		return domain.Params(m.maskMap(t))
	case domain.Query:
		return domain.Query(m.maskMap(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = m.maskValue(e)
		}
		return out
	}
	return v
}
