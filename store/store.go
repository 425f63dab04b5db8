// Package store holds observable state containers: plain stores, reducer
// stores fed by a dispatcher, async stores and selectors derived from them.
//
// Notifications are delivered synchronously, one at a time, through a
// delivery queue. A store changed from inside a notification is queued and
// delivered once the current notification has reached every observer.
// Unless built with WithQueue, every store, dispatcher and selector in the
// process shares one default queue, so a slow observer delays delivery for
// all of them. Give an independent group of stores its own queue with
// WithQueue(NewQueue()); stores that feed each other must share one.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/delaneyj/rxstate/internal/equal"
	"github.com/delaneyj/rxstate/internal/serial"
	"github.com/delaneyj/rxstate/rx"
)

// LoadFunc produces a store's value. It runs on its own goroutine and should
// return promptly once ctx is canceled.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// SaveFunc persists a value written with Next.
type SaveFunc[T any] func(ctx context.Context, value T) error

// Store holds a single value. Given a LoadFunc (WithLoad) it starts out
// Initial and fetches its value when first subscribed or loaded; given a
// SaveFunc (WithSave) it hands every value written with Next to it.
type Store[T any] struct {
	cfg   *settings
	queue *serial.Queue
	get   LoadFunc[T]
	set   SaveFunc[T]

	state  *rx.BehaviorSubject[T]
	stream rx.Observable[T]

	mu        sync.Mutex
	value     T
	status    Status
	err       error
	pending   *Pending[T]
	count     int
	getGen    uint64
	setGen    uint64
	cancelGet context.CancelFunc
	cancelSet context.CancelFunc
}

func NewStore[T any](initial T, opts ...Option) *Store[T] {
	cfg := applyOptions(opts)
	eq := optionOf[func(a, b T) bool]("equal", cfg.equal)
	if eq == nil {
		eq = equal.Values[T]
	}

	s := &Store[T]{
		cfg:   cfg,
		queue: cfg.queueOr(shared),
		get:   optionOf[LoadFunc[T]]("load", cfg.load),
		set:   optionOf[SaveFunc[T]]("save", cfg.save),
		state: rx.NewBehaviorSubject(initial),
		value: initial,
	}
	s.stream = rx.Distinct[T](s.state, eq)

	if s.get == nil {
		s.status = HasValue
		s.pending = Resolved(initial)
	}
	return s
}

// NewStoreFactory returns a constructor for stores sharing opts.
func NewStoreFactory[T any](opts ...Option) func(initial T) *Store[T] {
	return func(initial T) *Store[T] {
		return NewStore(initial, opts...)
	}
}

func (s *Store[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Store[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the load or save failure behind HasError.
func (s *Store[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// setStatus must be called with s.mu held.
func (s *Store[T]) setStatus(next Status) {
	prev := s.status
	s.status = next
	s.cfg.logStatusChange(prev, next)
}

// Load starts the getter unless a load is in flight or has completed, in
// which case that load is returned. Without a getter the result is the
// current value.
func (s *Store[T]) Load() *Pending[T] {
	var p *Pending[T]
	s.queue.Sync(func() {
		p = s.load()
	})
	return p
}

func (s *Store[T]) load() *Pending[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil && s.status != Initial {
		return s.pending
	}

	s.getGen++
	gen := s.getGen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelGet = cancel
	p := newPending[T](s.queue)
	s.pending = p
	s.setStatus(Loading)

	go func() {
		defer cancel()
		v, err := callLoad(ctx, s.get)
		s.queue.Do(func() {
			s.finishLoad(gen, v, err)
		})
		p.settle(v, err)
	}()
	return p
}

func (s *Store[T]) finishLoad(gen uint64, v T, err error) {
	s.mu.Lock()
	if gen != s.getGen {
		s.mu.Unlock()
		return
	}
	s.cancelGet = nil
	if err != nil {
		s.err = err
		s.setStatus(HasError)
		s.mu.Unlock()
		return
	}
	prev := s.value
	s.value = v
	s.err = nil
	s.setStatus(HasValue)
	s.mu.Unlock()

	logState(s.cfg, prev, v)
	s.state.Next(v)
}

// Next replaces the value, abandoning any load or save in flight, and then
// saves it when the store has a setter.
func (s *Store[T]) Next(v T) {
	s.queue.Do(func() {
		s.mu.Lock()
		s.cancelLocked()
		prev := s.value
		s.value = v
		s.err = nil
		s.pending = Resolved(v)
		s.setStatus(HasValue)

		var (
			set SaveFunc[T]
			ctx context.Context
			gen uint64
		)
		if s.set != nil {
			set = s.set
			gen = s.setGen
			ctx, s.cancelSet = context.WithCancel(context.Background())
		}
		s.mu.Unlock()

		logState(s.cfg, prev, v)
		s.state.Next(v)

		if set != nil {
			go s.save(ctx, gen, set, v)
		}
	})
}

func (s *Store[T]) save(ctx context.Context, gen uint64, set SaveFunc[T], v T) {
	err := callSave(ctx, set, v)
	if err == nil {
		return
	}
	s.queue.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.setGen {
			return
		}
		s.cancelSet = nil
		s.err = err
		s.setStatus(HasError)
	})
}

// cancelLocked abandons the in-flight get and set. s.mu must be held.
func (s *Store[T]) cancelLocked() {
	if s.cancelGet != nil {
		s.cancelGet()
		s.cancelGet = nil
	}
	if s.cancelSet != nil {
		s.cancelSet()
		s.cancelSet = nil
	}
	s.getGen++
	s.setGen++
}

// Subscribe delivers the current value and then every distinct change. The
// first subscriber starts a load.
func (s *Store[T]) Subscribe(o rx.Observer[T]) *rx.Subscription {
	var sub *rx.Subscription
	s.queue.Sync(func() {
		s.mu.Lock()
		s.count++
		count := s.count
		s.mu.Unlock()

		s.cfg.logSubscribe(count)
		if count == 1 {
			s.load()
		}
		sub = s.stream.Subscribe(o)
	})
	sub.Add(s.release)
	return sub
}

func (s *Store[T]) release() {
	s.queue.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.count--
		s.cfg.logUnsubscribe(s.count)
		if s.count > 0 {
			return
		}
		if s.status == Loading {
			s.setStatus(Initial)
		}
		s.cancelLocked()
	})
}

// Observed returns the number of subscribers.
func (s *Store[T]) Observed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Store[T]) read() T { return s.Value() }

func (s *Store[T]) watch(onChange func()) *rx.Subscription {
	return s.Subscribe(rx.OnNext(func(T) { onChange() }))
}

func (s *Store[T]) settle(ctx context.Context) error {
	_, err := s.Load().Wait(ctx)
	return err
}

// callLoad turns a panicking getter into an error.
func callLoad[T any](ctx context.Context, get func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store: load panicked: %v", r)
		}
	}()
	return get(ctx)
}

func callSave[T any](ctx context.Context, set SaveFunc[T], v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store: save panicked: %v", r)
		}
	}()
	return set(ctx, v)
}
