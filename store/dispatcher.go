package store

import (
	"github.com/delaneyj/rxstate/internal/serial"
	"github.com/delaneyj/rxstate/rx"
)

// shared is the queue every store and dispatcher uses unless given another
// through WithQueue. One queue gives all of them a single delivery order.
var shared = serial.New()

// Dispatcher is a multicast channel of actions with no memory: an action
// dispatched while nobody is subscribed is lost. It may be shared by any
// number of reducer stores.
type Dispatcher[A Action] struct {
	subject *rx.Subject[A]
	queue   *serial.Queue
}

// NewDispatcher accepts WithQueue; other options are ignored.
func NewDispatcher[A Action](opts ...Option) *Dispatcher[A] {
	cfg := applyOptions(opts)
	return &Dispatcher[A]{
		subject: rx.NewSubject[A](),
		queue:   cfg.queueOr(shared),
	}
}

// Next delivers action to every current subscriber in subscription order
// before returning. An action dispatched while another is being delivered,
// from an observer or an effect, is delivered once the current one has
// reached everybody.
func (d *Dispatcher[A]) Next(action A) {
	d.queue.Do(func() {
		d.subject.Next(action)
	})
}

func (d *Dispatcher[A]) Subscribe(o rx.Observer[A]) *rx.Subscription {
	return d.subject.Subscribe(o)
}

// Observed returns the number of subscribers.
func (d *Dispatcher[A]) Observed() int {
	return d.subject.Observed()
}
