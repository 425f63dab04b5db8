package rx

import (
	"context"
	"sync"
)

// Observer receives values from an Observable. Any of the callbacks may be nil.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// OnNext is shorthand for an Observer that only cares about values.
func OnNext[T any](fn func(T)) Observer[T] {
	return Observer[T]{Next: fn}
}

type Observable[T any] interface {
	Subscribe(o Observer[T]) *Subscription
}

// ObservableFunc adapts a subscribe function to the Observable interface.
type ObservableFunc[T any] func(o Observer[T]) *Subscription

func (f ObservableFunc[T]) Subscribe(o Observer[T]) *Subscription {
	return f(o)
}

// subscriber wraps an Observer so that nothing is delivered after it has
// been unsubscribed, errored or completed.
type subscriber[T any] struct {
	*Subscription

	mu       sync.Mutex
	stopped  bool
	observer Observer[T]
}

func newSubscriber[T any](o Observer[T]) *subscriber[T] {
	s := &subscriber[T]{
		Subscription: NewSubscription(),
		observer:     o,
	}
	s.Add(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
	})
	return s
}

func (s *subscriber[T]) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *subscriber[T]) next(v T) {
	if s.isStopped() || s.observer.Next == nil {
		return
	}
	s.observer.Next(v)
}

func (s *subscriber[T]) error(err error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	if s.observer.Error != nil {
		s.observer.Error(err)
	}
	s.Unsubscribe()
}

func (s *subscriber[T]) complete() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	if s.observer.Complete != nil {
		s.observer.Complete()
	}
	s.Unsubscribe()
}

func (s *subscriber[T]) asObserver() Observer[T] {
	return Observer[T]{Next: s.next, Error: s.error, Complete: s.complete}
}

// New builds an Observable from a producer. The producer pushes into o and
// may register teardown on sub.
func New[T any](produce func(o Observer[T], sub *Subscription)) Observable[T] {
	return ObservableFunc[T](func(o Observer[T]) *Subscription {
		s := newSubscriber(o)
		produce(s.asObserver(), s.Subscription)
		return s.Subscription
	})
}

// Of emits the given values synchronously and completes.
func Of[T any](values ...T) Observable[T] {
	return New(func(o Observer[T], sub *Subscription) {
		for _, v := range values {
			if sub.Closed() {
				return
			}
			o.Next(v)
		}
		o.Complete()
	})
}

// Empty completes immediately.
func Empty[T any]() Observable[T] {
	return Of[T]()
}

// FromFunc runs fn on its own goroutine when subscribed, emits its result and
// completes, or errors. Unsubscribing cancels fn's context and discards
// whatever it eventually returns.
func FromFunc[T any](fn func(ctx context.Context) (T, error)) Observable[T] {
	return New(func(o Observer[T], sub *Subscription) {
		ctx, cancel := context.WithCancel(context.Background())
		sub.Add(cancel)

		go func() {
			v, err := fn(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				o.Error(err)
				return
			}
			o.Next(v)
			o.Complete()
		}()
	})
}
