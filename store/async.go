package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/delaneyj/rxstate/internal/equal"
	"github.com/delaneyj/rxstate/internal/serial"
	"github.com/delaneyj/rxstate/result"
	"github.com/delaneyj/rxstate/rx"
)

// UpdateFunc writes a value somewhere and returns what was actually stored,
// which becomes the store's value.
type UpdateFunc[T any] func(ctx context.Context, value T) (T, error)

// AsyncStore holds the Result of a fallible load. A failed load is a value
// like any other: subscribers receive it as an Error result.
type AsyncStore[T any] struct {
	cfg   *settings
	queue *serial.Queue
	get   LoadFunc[T]
	set   UpdateFunc[T]
	eq    func(a, b T) bool

	state  *rx.BehaviorSubject[*result.Result[T]]
	stream rx.Observable[result.Result[T]]

	mu        sync.Mutex
	current   *result.Result[T]
	loading   bool
	pending   *Pending[T]
	count     int
	getGen    uint64
	setGen    uint64
	cancelGet context.CancelFunc
	cancelSet context.CancelFunc
}

// NewAsyncStore builds a store loading its value with get. set may be nil.
func NewAsyncStore[T any](get LoadFunc[T], set UpdateFunc[T], opts ...Option) *AsyncStore[T] {
	cfg := applyOptions(opts)
	eq := optionOf[func(a, b T) bool]("equal", cfg.equal)
	if eq == nil {
		eq = equal.Values[T]
	}

	a := &AsyncStore[T]{
		cfg:   cfg,
		queue: cfg.queueOr(shared),
		get:   get,
		set:   set,
		eq:    eq,
		state: rx.NewBehaviorSubject[*result.Result[T]](nil),
	}

	loaded := rx.Filter[*result.Result[T]](a.state, func(r *result.Result[T]) bool {
		return r != nil
	})
	values := rx.Map(loaded, func(r *result.Result[T]) result.Result[T] {
		return *r
	})
	a.stream = rx.Distinct(values, func(x, y result.Result[T]) bool {
		if x.IsOk() && y.IsOk() {
			return eq(x.Value(), y.Value())
		}
		return x.EqualTo(y)
	})
	return a
}

// Value returns the current result; ok is false until a load or Next has
// produced one.
func (a *AsyncStore[T]) Value() (r result.Result[T], ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return r, false
	}
	return *a.current, true
}

func (a *AsyncStore[T]) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.loading:
		return Loading
	case a.current == nil:
		return Initial
	case a.current.IsError():
		return HasError
	default:
		return HasValue
	}
}

func (a *AsyncStore[T]) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	return a.current.Err()
}

// Load returns the load in flight, or the last completed one, unless force
// is set. Otherwise it abandons any load in flight and calls the getter
// again. The returned Pending settles with whatever the getter returns; the
// store only takes that outcome if nothing superseded the load meanwhile.
func (a *AsyncStore[T]) Load(force bool) *Pending[T] {
	var p *Pending[T]
	a.queue.Sync(func() {
		p = a.load(force)
	})
	return p
}

func (a *AsyncStore[T]) load(force bool) *Pending[T] {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !force && a.pending != nil {
		return a.pending
	}

	if a.cancelGet != nil {
		a.cancelGet()
	}
	a.getGen++
	gen := a.getGen
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelGet = cancel
	p := newPending[T](a.queue)
	a.pending = p
	prev := a.statusLocked()
	a.loading = true
	a.cfg.logStatusChange(prev, Loading)

	go func() {
		defer cancel()
		v, err := callLoad(ctx, a.get)
		a.queue.Do(func() {
			a.finishLoad(gen, result.From(v, err))
		})
		p.settle(v, err)
	}()
	return p
}

func (a *AsyncStore[T]) finishLoad(gen uint64, r result.Result[T]) {
	a.mu.Lock()
	current := gen == a.getGen
	if current {
		a.cancelGet = nil
	}
	a.mu.Unlock()

	if current {
		a.publish(r, true)
	}
}

// publish runs on the queue. endLoad marks the end of the load in flight.
func (a *AsyncStore[T]) publish(r result.Result[T], endLoad bool) {
	a.mu.Lock()
	prev := a.statusLocked()
	if endLoad {
		a.loading = false
	}
	a.current = &r
	next := a.statusLocked()
	a.mu.Unlock()

	a.cfg.logStatusChange(prev, next)
	if v, err := r.Get(); err == nil {
		logResult(a.cfg, v)
	}
	a.state.Next(&r)
}

// statusLocked is Status with a.mu held.
func (a *AsyncStore[T]) statusLocked() Status {
	switch {
	case a.loading:
		return Loading
	case a.current == nil:
		return Initial
	case a.current.IsError():
		return HasError
	default:
		return HasValue
	}
}

// Next sets the value to Ok(v) at once and hands v to the setter. Any load or
// save in flight is abandoned. Writing the value the store already holds
// skips the setter, and does nothing at all unless a load is in flight.
func (a *AsyncStore[T]) Next(v T) {
	a.queue.Do(func() {
		a.mu.Lock()
		same := a.current != nil && a.current.IsOk() && a.eq(a.current.Value(), v)
		if same && !a.loading {
			a.mu.Unlock()
			return
		}

		a.cancelLocked()
		a.pending = Resolved(v)

		var (
			set UpdateFunc[T]
			ctx context.Context
			gen = a.setGen
		)
		if a.set != nil && !same {
			set = a.set
			ctx, a.cancelSet = context.WithCancel(context.Background())
		}
		a.mu.Unlock()

		a.publish(result.Ok(v), true)

		if set != nil {
			go a.save(ctx, gen, set, v)
		}
	})
}

func (a *AsyncStore[T]) save(ctx context.Context, gen uint64, set UpdateFunc[T], v T) {
	out, err := callUpdate(ctx, set, v)
	a.queue.Do(func() {
		a.mu.Lock()
		if gen != a.setGen {
			a.mu.Unlock()
			return
		}
		a.cancelSet = nil
		// a forced load started meanwhile owns the pending
		if !a.loading {
			if err != nil {
				a.pending = Rejected[T](err)
			} else {
				a.pending = Resolved(out)
			}
		}
		a.mu.Unlock()

		a.publish(result.From(out, err), false)
	})
}

// cancelLocked abandons the in-flight get and set. a.mu must be held.
func (a *AsyncStore[T]) cancelLocked() {
	if a.cancelGet != nil {
		a.cancelGet()
		a.cancelGet = nil
	}
	if a.cancelSet != nil {
		a.cancelSet()
		a.cancelSet = nil
	}
	a.getGen++
	a.setGen++
}

// Subscribe delivers the current result, if there is one, and every distinct
// result after it. The first subscriber starts a load unless one has
// already happened.
func (a *AsyncStore[T]) Subscribe(o rx.Observer[result.Result[T]]) *rx.Subscription {
	var sub *rx.Subscription
	a.queue.Sync(func() {
		a.mu.Lock()
		a.count++
		count := a.count
		a.mu.Unlock()

		a.cfg.logSubscribe(count)
		if count == 1 {
			a.load(false)
		}
		sub = a.stream.Subscribe(o)
	})
	sub.Add(a.release)
	return sub
}

// release stops all background work once nobody is listening. A load cut
// short this way is forgotten so that the next subscriber starts over.
func (a *AsyncStore[T]) release() {
	a.queue.Do(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.count--
		a.cfg.logUnsubscribe(a.count)
		if a.count > 0 {
			return
		}
		if a.loading {
			a.loading = false
			a.pending = nil
			a.cfg.logStatusChange(Loading, a.statusLocked())
		}
		a.cancelLocked()
	})
}

// Observed returns the number of subscribers.
func (a *AsyncStore[T]) Observed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// read returns the Ok value, or the zero value while there is none.
func (a *AsyncStore[T]) read() T {
	r, _ := a.Value()
	return r.Value()
}

func (a *AsyncStore[T]) watch(onChange func()) *rx.Subscription {
	return a.Subscribe(rx.OnNext(func(result.Result[T]) { onChange() }))
}

func (a *AsyncStore[T]) settle(ctx context.Context) error {
	_, err := a.Load(false).Wait(ctx)
	return err
}

func callUpdate[T any](ctx context.Context, set UpdateFunc[T], v T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store: save panicked: %v", r)
		}
	}()
	return set(ctx, v)
}
