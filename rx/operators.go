package rx

import (
	"sync"

	"github.com/delaneyj/rxstate/internal/equal"
)

// forward subscribes to src with an observer whose Error and Complete are
// passed straight through to o; only Next is intercepted.
func forward[A, B any](src Observable[A], o Observer[B], sub *Subscription, next func(A)) {
	sub.AddSubscription(src.Subscribe(Observer[A]{
		Next:     next,
		Error:    o.Error,
		Complete: o.Complete,
	}))
}

func Filter[T any](src Observable[T], keep func(T) bool) Observable[T] {
	return New(func(o Observer[T], sub *Subscription) {
		forward(src, o, sub, func(v T) {
			if keep(v) {
				o.Next(v)
			}
		})
	})
}

func Map[A, B any](src Observable[A], fn func(A) B) Observable[B] {
	return New(func(o Observer[B], sub *Subscription) {
		forward(src, o, sub, func(v A) {
			o.Next(fn(v))
		})
	})
}

// Distinct suppresses a value when it equals the previous value delivered to
// the same observer. The first value always passes. A nil eq uses
// reference/value equality.
func Distinct[T any](src Observable[T], eq func(a, b T) bool) Observable[T] {
	if eq == nil {
		eq = equal.Values[T]
	}
	return New(func(o Observer[T], sub *Subscription) {
		var (
			mu   sync.Mutex
			last T
			seen bool
		)
		forward(src, o, sub, func(v T) {
			mu.Lock()
			prev, had := last, seen
			mu.Unlock()

			// eq may panic, so it never runs under mu
			if had && eq(prev, v) {
				return
			}

			mu.Lock()
			last, seen = v, true
			mu.Unlock()
			o.Next(v)
		})
	})
}

// Finalize calls fn once when the subscription ends, for whatever reason.
func Finalize[T any](src Observable[T], fn func()) Observable[T] {
	return ObservableFunc[T](func(o Observer[T]) *Subscription {
		var once sync.Once
		sub := src.Subscribe(o)
		sub.Add(func() { once.Do(fn) })
		return sub
	})
}

// MergeMap subscribes to project(v) for every source value and merges the
// inner streams' values into the output. An error from any inner stream
// errors the output and tears everything down.
func MergeMap[A, B any](src Observable[A], project func(A) Observable[B]) Observable[B] {
	return New(func(o Observer[B], sub *Subscription) {
		var (
			mu          sync.Mutex
			inners      = map[*Subscription]struct{}{}
			pending     int
			outerClosed bool
		)
		maybeComplete := func() {
			mu.Lock()
			done := outerClosed && pending == 0
			mu.Unlock()
			if done {
				o.Complete()
			}
		}
		sub.Add(func() {
			mu.Lock()
			open := make([]*Subscription, 0, len(inners))
			for inner := range inners {
				open = append(open, inner)
			}
			inners = map[*Subscription]struct{}{}
			mu.Unlock()
			for _, inner := range open {
				inner.Unsubscribe()
			}
		})

		sub.AddSubscription(src.Subscribe(Observer[A]{
			Next: func(v A) {
				mu.Lock()
				pending++
				mu.Unlock()

				var (
					inner    *Subscription
					finished sync.Once
				)
				finish := func() {
					finished.Do(func() {
						mu.Lock()
						pending--
						if inner != nil {
							delete(inners, inner)
						}
						mu.Unlock()
						maybeComplete()
					})
				}

				s := project(v).Subscribe(Observer[B]{
					Next:     o.Next,
					Error:    o.Error,
					Complete: finish,
				})
				mu.Lock()
				inner = s
				if !s.Closed() {
					inners[s] = struct{}{}
				}
				mu.Unlock()
				// an inner stream cut short by its own teardown still counts as done
				s.Add(finish)
			},
			Error: o.Error,
			Complete: func() {
				mu.Lock()
				outerClosed = true
				mu.Unlock()
				maybeComplete()
			},
		}))
	})
}

// TakeUntil mirrors src until notifier emits, then completes.
func TakeUntil[T, N any](src Observable[T], notifier Observable[N]) Observable[T] {
	return New(func(o Observer[T], sub *Subscription) {
		sub.AddSubscription(notifier.Subscribe(Observer[N]{
			Next:  func(N) { o.Complete() },
			Error: o.Error,
		}))
		if sub.Closed() {
			return
		}
		forward(src, o, sub, o.Next)
	})
}

// Latest pairs a source value with the most recent value of another stream.
type Latest[A, B any] struct {
	Value  A
	Latest B
}

// WithLatestFrom emits each src value paired with the latest value of other.
// Source values arriving before other has emitted are dropped.
func WithLatestFrom[A, B any](src Observable[A], other Observable[B]) Observable[Latest[A, B]] {
	return New(func(o Observer[Latest[A, B]], sub *Subscription) {
		var (
			mu     sync.Mutex
			latest B
			has    bool
		)
		sub.AddSubscription(other.Subscribe(Observer[B]{
			Next: func(v B) {
				mu.Lock()
				latest, has = v, true
				mu.Unlock()
			},
			Error: o.Error,
		}))

		forward(src, o, sub, func(v A) {
			mu.Lock()
			l, ok := latest, has
			mu.Unlock()
			if ok {
				o.Next(Latest[A, B]{Value: v, Latest: l})
			}
		})
	})
}
