package domain

import (
	"context"
	"sync"
)

// Awaitable is a value that resolves later.
// A synchronous hook may return one to suspend its step until resolution.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Deferred is a single-assignment Awaitable.
// Only the first Resolve or Reject takes effect.
type Deferred struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// NewDeferred creates an unresolved Deferred.
func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Resolve settles the deferred value successfully.
func (d *Deferred) Resolve(value any) {
	d.settle(value, nil)
}

// Reject settles the deferred value with an error.
func (d *Deferred) Reject(err error) {
	d.settle(nil, err)
}

func (d *Deferred) settle(value any, err error) {
	d.once.Do(func() {
		d.value = value
		d.err = err
		close(d.done)
	})
}

// Await blocks until the value settles or ctx is done.
// A nil Deferred resolves to nil.
func (d *Deferred) Await(ctx context.Context) (any, error) {
	if d == nil {
		return nil, nil
	}
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Async runs fn on its own goroutine and returns its pending result.
// A panic inside fn rejects the value with a PanicError.
func Async(fn func() (any, error)) *Deferred {
	d := NewDeferred()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.Reject(&PanicError{Value: r})
			}
		}()
		d.settle(fn())
	}()
	return d
}

// Resolved returns an already resolved Deferred.
func Resolved(value any) *Deferred {
	d := NewDeferred()
	d.Resolve(value)
	return d
}

// Rejected returns an already rejected Deferred.
func Rejected(err error) *Deferred {
	d := NewDeferred()
	d.Reject(err)
	return d
}
