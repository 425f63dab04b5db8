package store

import (
	"context"
	"errors"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/rxstate/internal/equal"
	"github.com/delaneyj/rxstate/rx"
)

// ReducerStore folds dispatched actions into its state with a reducer and
// runs effects alongside. The reducer pipeline and the effects exist once,
// however many subscribers the store has, and only while it has at least
// one, unless the store is hot.
type ReducerStore[S any, A Action, D any] struct {
	cfg        *settings
	dispatcher *Dispatcher[A]
	reducer    Reducer[S, A]
	effects    []Effect[S, A, D]
	deps       D
	initial    *Pending[S]

	state  *rx.BehaviorSubject[S]
	stream rx.Observable[S]

	mu      sync.Mutex
	value   S
	count   int
	active  bool
	actions *rx.Subscription
	running mapset.Set[*rx.Subscription]
}

func NewReducerStore[S any, A Action, D any](
	initial S,
	deps D,
	reducer Reducer[S, A],
	effects []Effect[S, A, D],
	opts ...Option,
) *ReducerStore[S, A, D] {
	cfg := applyOptions(opts)
	eq := optionOf[func(a, b S) bool]("equal", cfg.equal)
	if eq == nil {
		eq = equal.Values[S]
	}
	d := optionOf[*Dispatcher[A]]("dispatcher", cfg.dispatcher)
	if d == nil {
		d = NewDispatcher[A](WithQueue(cfg.queueOr(shared)))
	}

	r := &ReducerStore[S, A, D]{
		cfg:        cfg,
		dispatcher: d,
		reducer:    reducer,
		effects:    effects,
		deps:       deps,
		initial:    Resolved(initial),
		state:      rx.NewBehaviorSubject(initial),
		value:      initial,
		running:    mapset.NewSet[*rx.Subscription](),
	}
	r.stream = rx.Distinct[S](r.state, eq)

	if cfg.hot {
		d.queue.Sync(r.activate)
	}
	return r
}

// NewReducerStoreFactory returns a constructor for stores sharing a reducer,
// effects and options.
func NewReducerStoreFactory[S any, A Action, D any](
	reducer Reducer[S, A],
	effects []Effect[S, A, D],
	opts ...Option,
) func(initial S, deps D) *ReducerStore[S, A, D] {
	return func(initial S, deps D) *ReducerStore[S, A, D] {
		return NewReducerStore(initial, deps, reducer, effects, opts...)
	}
}

// Dispatcher returns the dispatcher the store consumes.
func (r *ReducerStore[S, A, D]) Dispatcher() *Dispatcher[A] {
	return r.dispatcher
}

// Next dispatches action. It is dropped unless the store, or another store
// sharing its dispatcher, is active.
func (r *ReducerStore[S, A, D]) Next(action A) {
	r.dispatcher.Next(action)
}

func (r *ReducerStore[S, A, D]) Value() S {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Load is already settled with the initial state.
func (r *ReducerStore[S, A, D]) Load() *Pending[S] {
	return r.initial
}

func (r *ReducerStore[S, A, D]) Status() Status { return HasValue }

func (r *ReducerStore[S, A, D]) Err() error { return nil }

// Active reports whether the reducer and effects are running.
func (r *ReducerStore[S, A, D]) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *ReducerStore[S, A, D]) Subscribe(o rx.Observer[S]) *rx.Subscription {
	var sub *rx.Subscription
	r.dispatcher.queue.Sync(func() {
		r.mu.Lock()
		r.count++
		count := r.count
		r.mu.Unlock()

		r.cfg.logSubscribe(count)
		r.activate()
		sub = r.stream.Subscribe(o)
	})
	sub.Add(r.release)
	return sub
}

func (r *ReducerStore[S, A, D]) release() {
	r.dispatcher.queue.Do(func() {
		r.mu.Lock()
		r.count--
		count := r.count
		idle := count == 0 && !r.cfg.hot
		r.mu.Unlock()

		r.cfg.logUnsubscribe(count)
		if idle {
			r.deactivate()
		}
	})
}

// Observed returns the number of subscribers.
func (r *ReducerStore[S, A, D]) Observed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// activate runs on the dispatcher's queue.
func (r *ReducerStore[S, A, D]) activate() {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return
	}
	r.active = true
	r.mu.Unlock()

	// the reducer subscribes first so that it sees an action before any
	// effect reacting to it
	actions := r.dispatcher.Subscribe(rx.OnNext(r.reduce))
	r.mu.Lock()
	r.actions = actions
	r.mu.Unlock()

	for i, effect := range r.effects {
		r.startEffect(i, effect)
	}
}

func (r *ReducerStore[S, A, D]) startEffect(index int, effect Effect[S, A, D]) {
	var (
		sub    *rx.Subscription
		failed bool
	)

	out, err := runEffect(effect, r.dispatcher, r.stream, r.deps)
	if err != nil {
		r.cfg.logEffectError(index, err)
		return
	}
	s := out.Subscribe(rx.Observer[A]{
		Next: r.dispatcher.Next,
		Error: func(err error) {
			r.cfg.logEffectError(index, err)
			r.mu.Lock()
			failed = true
			if sub != nil {
				r.running.Remove(sub)
			}
			r.mu.Unlock()
		},
	})

	r.mu.Lock()
	sub = s
	keep := !failed && r.active
	if keep && !s.Closed() {
		r.running.Add(s)
	}
	r.mu.Unlock()

	// deactivated while the effect was starting
	if !keep {
		s.Unsubscribe()
	}
}

// runEffect builds an effect's output stream, turning a panic into an error
// so that one broken effect cannot take the store down with it.
func runEffect[S any, A Action, D any](effect Effect[S, A, D], actions rx.Observable[A], state rx.Observable[S], deps D) (out rx.Observable[A], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrEffectPanicked, panicError(r))
		}
	}()
	out = effect(actions, state, deps)
	if out == nil {
		return nil, ErrNilEffect
	}
	return out, nil
}

func (r *ReducerStore[S, A, D]) deactivate() {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.active = false
	actions := r.actions
	r.actions = nil
	running := r.running.ToSlice()
	r.running.Clear()
	r.mu.Unlock()

	if actions != nil {
		actions.Unsubscribe()
	}
	for _, sub := range running {
		sub.Unsubscribe()
	}
}

func (r *ReducerStore[S, A, D]) reduce(action A) {
	logAction(r.cfg, action)

	r.mu.Lock()
	prev := r.value
	r.mu.Unlock()

	next := r.reducer(prev, action)

	r.mu.Lock()
	r.value = next
	r.mu.Unlock()

	logState(r.cfg, prev, next)
	r.state.Next(next)
}

func (r *ReducerStore[S, A, D]) read() S { return r.Value() }

func (r *ReducerStore[S, A, D]) watch(onChange func()) *rx.Subscription {
	return r.Subscribe(rx.OnNext(func(S) { onChange() }))
}

func (r *ReducerStore[S, A, D]) settle(context.Context) error { return nil }
