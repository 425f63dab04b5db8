package store

import (
	"context"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/rxstate/internal/equal"
	"github.com/delaneyj/rxstate/internal/serial"
	"github.com/delaneyj/rxstate/rx"
)

// Dependency is anything a Selector can read: every store kind in this
// package and Selector itself.
type Dependency interface {
	Status() Status
	Err() error

	watch(onChange func()) *rx.Subscription
	settle(ctx context.Context) error
}

// Readable is a Dependency holding a T.
type Readable[T any] interface {
	Dependency
	read() T
}

// Getter records what a selector's compute function reads.
type Getter struct {
	touched mapset.Set[Dependency]
	order   []Dependency
	attach  func(Dependency)
}

func newGetter(attach func(Dependency)) *Getter {
	return &Getter{
		touched: mapset.NewThreadUnsafeSet[Dependency](),
		attach:  attach,
	}
}

// Get returns dep's current value and, while the selector is subscribed,
// keeps it subscribed to dep. An async store reads as its Ok value, or the
// zero value while it has none.
func Get[T any](g *Getter, dep Readable[T]) T {
	if g.touched.Add(dep) {
		g.order = append(g.order, dep)
		if g.attach != nil {
			g.attach(dep)
		}
	}
	return dep.read()
}

// Selector derives a value from other stores. Its dependencies are whatever
// compute reads through Get on the latest run: nothing is declared up front,
// and a dependency that a run no longer reads is dropped.
//
// A selector subscribes to its dependencies only while it has subscribers
// itself. Every change of a dependency reruns compute; subscribers hear of
// the result only when it differs from the previous one.
type Selector[T any] struct {
	cfg     *settings
	queue   *serial.Queue
	compute func(g *Getter) T
	eq      func(a, b T) bool

	out    *rx.BehaviorSubject[T]
	stream rx.Observable[T]

	mu          sync.Mutex
	deps        map[Dependency]*rx.Subscription
	order       []Dependency
	count       int
	active      bool
	hasValue    bool
	value       T
	recomputing bool
	dirty       bool
	pending     *Pending[T]
}

func NewSelector[T any](compute func(g *Getter) T, opts ...Option) *Selector[T] {
	cfg := applyOptions(opts)
	eq := optionOf[func(a, b T) bool]("equal", cfg.equal)
	if eq == nil {
		eq = equal.Values[T]
	}

	var zero T
	s := &Selector[T]{
		cfg:     cfg,
		queue:   cfg.queueOr(shared),
		compute: compute,
		eq:      eq,
		out:     rx.NewBehaviorSubject(zero),
		deps:    map[Dependency]*rx.Subscription{},
	}
	s.stream = rx.Distinct[T](s.out, eq)
	return s
}

// Value returns the last computed value while subscribed. Otherwise it
// computes a fresh one without subscribing to anything.
func (s *Selector[T]) Value() T {
	s.mu.Lock()
	if s.active && s.hasValue {
		v := s.value
		s.mu.Unlock()
		return v
	}
	s.mu.Unlock()
	return s.compute(newGetter(nil))
}

// Status folds the statuses of the current dependencies: any error, then any
// load in flight, then anything not loaded yet.
func (s *Selector[T]) Status() Status {
	deps := s.dependencies()
	statuses := make([]Status, len(deps))
	for i, dep := range deps {
		statuses[i] = dep.Status()
	}
	return CombineStatus(statuses...)
}

// Err returns the error of the first dependency that has one, in the order
// compute read them.
func (s *Selector[T]) Err() error {
	for _, dep := range s.dependencies() {
		if dep.Status() == HasError {
			return dep.Err()
		}
	}
	return nil
}

func (s *Selector[T]) dependencies() []Dependency {
	s.mu.Lock()
	if s.active && s.hasValue {
		deps := make([]Dependency, len(s.order))
		copy(deps, s.order)
		s.mu.Unlock()
		return deps
	}
	s.mu.Unlock()

	g := newGetter(nil)
	s.compute(g)
	return g.order
}

// Load waits for every dependency to load and then computes the value.
// Dependencies that only show up once others have loaded are loaded in turn.
// Callers share one Pending until it settles, and while subscribed, until
// the value changes.
func (s *Selector[T]) Load() *Pending[T] {
	s.mu.Lock()
	if s.pending != nil && (s.active || !s.pending.Settled()) {
		p := s.pending
		s.mu.Unlock()
		return p
	}
	p := newPending[T](s.queue)
	s.pending = p
	s.mu.Unlock()

	go s.load(p)
	return p
}

func (s *Selector[T]) load(p *Pending[T]) {
	ctx := context.Background()
	loaded := mapset.NewThreadUnsafeSet[Dependency]()
	for {
		g := newGetter(nil)
		v, err := s.safeCompute(g)
		if err != nil {
			var zero T
			p.settle(zero, err)
			return
		}

		var fresh []Dependency
		for _, dep := range g.order {
			if loaded.Add(dep) {
				fresh = append(fresh, dep)
			}
		}
		if len(fresh) == 0 {
			p.settle(v, nil)
			return
		}

		for _, dep := range fresh {
			if err := dep.settle(ctx); err != nil {
				var zero T
				p.settle(zero, err)
				return
			}
		}
	}
}

func (s *Selector[T]) safeCompute(g *Getter) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return s.compute(g), nil
}

// Subscribe computes the value if the selector was idle, subscribing to
// everything the computation reads, then delivers the value and every
// distinct change after it.
func (s *Selector[T]) Subscribe(o rx.Observer[T]) *rx.Subscription {
	var sub *rx.Subscription
	s.queue.Sync(func() {
		s.mu.Lock()
		s.count++
		count := s.count
		first := !s.active
		s.active = true
		s.mu.Unlock()

		s.cfg.logSubscribe(count)
		if first {
			s.recompute()
		}
		sub = s.stream.Subscribe(o)
	})
	sub.Add(s.release)
	return sub
}

// release forgets every dependency once nobody is listening, so that the
// next subscriber starts from a fresh computation.
func (s *Selector[T]) release() {
	s.queue.Do(func() {
		s.mu.Lock()
		s.count--
		count := s.count
		if count > 0 {
			s.mu.Unlock()
			s.cfg.logUnsubscribe(count)
			return
		}

		subs := make([]*rx.Subscription, 0, len(s.deps))
		for _, sub := range s.deps {
			subs = append(subs, sub)
		}
		s.deps = map[Dependency]*rx.Subscription{}
		s.order = nil
		s.active = false
		s.hasValue = false
		if s.pending != nil && s.pending.Settled() {
			s.pending = nil
		}
		s.mu.Unlock()

		s.cfg.logUnsubscribe(count)
		unsubscribeAll(subs)
	})
}

// Observed returns the number of subscribers.
func (s *Selector[T]) Observed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Selector[T]) onChange() {
	s.queue.Sync(func() {
		s.mu.Lock()
		active := s.active
		s.mu.Unlock()
		if active {
			s.recompute()
		}
	})
}

// recompute runs compute until no dependency changed during the run, keeps
// the dependencies the last run read and publishes the value if it changed.
// A change notification arriving while compute runs only marks the selector
// dirty.
func (s *Selector[T]) recompute() {
	s.mu.Lock()
	if s.recomputing {
		s.dirty = true
		s.mu.Unlock()
		return
	}
	s.recomputing = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.recomputing = false
			s.dirty = false
			s.mu.Unlock()
			panic(r)
		}
	}()

	for {
		g := newGetter(s.attach)
		v := s.compute(g)

		s.mu.Lock()
		stale := s.pruneLocked(g)
		if s.dirty && s.active {
			s.dirty = false
			s.mu.Unlock()
			unsubscribeAll(stale)
			continue
		}
		s.dirty = false
		s.recomputing = false
		if !s.active {
			s.mu.Unlock()
			unsubscribeAll(stale)
			return
		}

		changed := !s.hasValue || !s.eq(s.value, v)
		s.value, s.hasValue = v, true
		if changed && s.pending != nil && s.pending.Settled() {
			s.pending = nil
		}
		s.mu.Unlock()

		unsubscribeAll(stale)
		if changed {
			s.out.Next(v)
		}
		return
	}
}

// pruneLocked drops the dependencies g did not read and returns their
// subscriptions. s.mu must be held.
func (s *Selector[T]) pruneLocked(g *Getter) []*rx.Subscription {
	var stale []*rx.Subscription
	for dep, sub := range s.deps {
		if !g.touched.Contains(dep) {
			delete(s.deps, dep)
			if sub != nil {
				stale = append(stale, sub)
			}
		}
	}
	s.order = g.order
	return stale
}

// attach subscribes to dep the first time a run reads it. The value dep
// replays on subscription is the one compute is about to read, so only
// notifications after that count as changes.
func (s *Selector[T]) attach(dep Dependency) {
	s.mu.Lock()
	if _, ok := s.deps[dep]; ok || !s.active {
		s.mu.Unlock()
		return
	}
	s.deps[dep] = nil
	s.mu.Unlock()

	var live atomic.Bool
	sub := dep.watch(func() {
		if live.Load() {
			s.onChange()
		}
	})
	live.Store(true)

	s.mu.Lock()
	if held, ok := s.deps[dep]; ok && held == nil {
		s.deps[dep] = sub
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	sub.Unsubscribe()
}

func (s *Selector[T]) read() T { return s.Value() }

func (s *Selector[T]) watch(onChange func()) *rx.Subscription {
	return s.Subscribe(rx.OnNext(func(T) { onChange() }))
}

func (s *Selector[T]) settle(ctx context.Context) error {
	_, err := s.Load().Wait(ctx)
	return err
}

func unsubscribeAll(subs []*rx.Subscription) {
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
