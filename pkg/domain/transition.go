package domain

import (
	"math"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// RetryFunc re-attempts a transition. It receives the transition it was bound to.
type RetryFunc func(t *Transition) error

// abortSlot boxes the reason so a nil pointer can mean "not aborted".
type abortSlot struct {
	reason any
}

// Transition encapsulates one navigation attempt towards a path.
//
// Leave and enter hooks receive it as their first argument and may record an
// abort intent on it. The abort reason is sticky: the first reason wins and is
// never reset.
type Transition struct {
	id    string
	path  string
	retry RetryFunc
	abort atomic.Pointer[abortSlot]
}

// NewTransition creates a transition to path. retry may be nil.
func NewTransition(path string, retry RetryFunc) *Transition {
	return &Transition{
		id:    uuid.NewString(),
		path:  path,
		retry: retry,
	}
}

// ID returns the unique identifier of this attempt.
func (t *Transition) ID() string {
	return t.id
}

// Path returns the destination path.
func (t *Transition) Path() string {
	return t.path
}

// AbortReason returns the recorded abort reason, or nil if not aborted.
func (t *Transition) AbortReason() any {
	slot := t.abort.Load()
	if slot == nil {
		return nil
	}
	return slot.reason
}

// Aborted reports whether an abort reason has been recorded.
func (t *Transition) Aborted() bool {
	return t.abort.Load() != nil
}

// Abort records reason unless a reason is already set.
// A falsy reason (nil, false, "", zero, NaN, nil pointer) records DefaultAbortReason.
func (t *Transition) Abort(reason any) {
	if isFalsy(reason) {
		reason = DefaultAbortReason
	}
	t.abort.CompareAndSwap(nil, &abortSlot{reason: reason})
}

// Redirect aborts the transition with a Redirect descriptor.
func (t *Transition) Redirect(to string, params Params, query Query) {
	t.Abort(&Redirect{To: to, Params: params, Query: query})
}

// Cancel aborts the transition with a Cancellation marker.
func (t *Transition) Cancel() {
	t.Abort(&Cancellation{})
}

// Retry re-executes this attempt through the function bound at construction.
func (t *Transition) Retry() error {
	if t.retry == nil {
		return ErrNoRetry
	}
	return t.retry(t)
}

func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.String:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
