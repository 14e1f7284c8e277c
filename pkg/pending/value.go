package pending

import (
	"context"
	"sync"
)

// Value is a result that may not be available yet. It settles exactly once,
// either resolved with a value or rejected with an error.
type Value struct {
	done chan struct{}
	once sync.Once
	val  any
	err  error
}

// New creates an unsettled Value.
func New() *Value {
	return &Value{done: make(chan struct{})}
}

// Resolved creates a Value already resolved with v.
func Resolved(v any) *Value {
	p := New()
	p.Resolve(v)
	return p
}

// Rejected creates a Value already rejected with err.
func Rejected(err error) *Value {
	p := New()
	p.Reject(err)
	return p
}

// Go runs fn on its own goroutine and settles the Value with its result.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Value {
	p := New()
	go func() {
		v, err := fn(ctx)
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	}()
	return p
}

// Resolve settles the Value with v. It reports false if already settled.
func (p *Value) Resolve(v any) bool {
	return p.settle(v, nil)
}

// Reject settles the Value with err. It reports false if already settled.
func (p *Value) Reject(err error) bool {
	return p.settle(nil, err)
}

func (p *Value) settle(v any, err error) bool {
	settled := false
	p.once.Do(func() {
		p.val, p.err = v, err
		settled = true
		close(p.done)
	})
	return settled
}

// Done returns a channel closed once the Value settles.
func (p *Value) Done() <-chan struct{} {
	return p.done
}

// Settled reports whether the Value has settled.
func (p *Value) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the Value settles or ctx is done.
func (p *Value) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then calls fn on a new goroutine once the Value settles.
func (p *Value) Then(fn func(v any, err error)) {
	go func() {
		<-p.done
		fn(p.val, p.err)
	}()
}
