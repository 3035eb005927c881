package compiler

import (
	"fmt"

	"github.com/aretw0/passage/internal/dto"
	"github.com/aretw0/passage/pkg/domain"
)

// effect is what a hook does to its transition when it settles.
type effect struct {
	kind     string
	reason   any
	redirect domain.Redirect
	failure  error
}

func parseEffect(v domain.Verdict) (effect, error) {
	e := effect{kind: v.Effect, reason: v.Reason}
	switch v.Effect {
	case "", dto.EffectAbort, dto.EffectCancel:
	case dto.EffectRedirect:
		if v.To == "" {
			return effect{}, fmt.Errorf("%w: redirect needs a target", domain.ErrInvalidRoute)
		}
		e.redirect = domain.Redirect{To: v.To, Params: v.Params, Query: v.Query}
	case dto.EffectFail:
		msg := v.Error
		if msg == "" {
			msg = "hook failed"
		}
		e.failure = fmt.Errorf("%w: %s", ErrDeclaredFailure, msg)
	default:
		return effect{}, fmt.Errorf("%w: unknown effect %q", domain.ErrInvalidRoute, v.Effect)
	}
	return e, nil
}

// apply records the effect on t. Only "fail" returns an error.
func (e effect) apply(t *domain.Transition) error {
	switch e.kind {
	case dto.EffectAbort:
		t.Abort(e.reason)
	case dto.EffectRedirect:
		r := e.redirect
		t.Redirect(r.To, r.Params, r.Query)
	case dto.EffectCancel:
		t.Cancel()
	case dto.EffectFail:
		return e.failure
	}
	return nil
}
