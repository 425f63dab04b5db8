package store

import (
	"context"
	"sync"

	"github.com/delaneyj/rxstate/internal/serial"
)

// Pending is the eventual outcome of a load. It settles exactly once. Callers
// that ask a store to load while a load is in flight get the same *Pending
// back, so pointer identity tells whether two loads are shared.
type Pending[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error

	// queue is the delivery queue the outcome has to pass through before
	// the Pending settles; nil for Pendings created settled.
	queue *serial.Queue
}

func newPending[T any](queue *serial.Queue) *Pending[T] {
	return &Pending[T]{done: make(chan struct{}), queue: queue}
}

// Resolved returns a Pending that has already settled with v.
func Resolved[T any](v T) *Pending[T] {
	p := newPending[T](nil)
	p.settle(v, nil)
	return p
}

// Rejected returns a Pending that has already settled with err.
func Rejected[T any](err error) *Pending[T] {
	p := newPending[T](nil)
	var zero T
	p.settle(zero, err)
	return p
}

func (p *Pending[T]) settle(v T, err error) {
	p.once.Do(func() {
		p.value, p.err = v, err
		close(p.done)
	})
}

// Done is closed once the outcome is known.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

func (p *Pending[T]) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the outcome is known or ctx is done. An observer cannot
// wait for a load of a store on its own delivery queue, since the load needs
// that queue to finish: called from inside a delivery on an unsettled
// Pending, Wait returns ErrWaitInDelivery at once. Use Done there instead.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	if p.queue != nil && !p.Settled() && p.queue.Owned() {
		var zero T
		return zero, ErrWaitInDelivery
	}
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
