package rx

import "sync"

// Subject is a multicast channel. Next delivers synchronously to every
// currently attached observer in subscription order; nothing is retained, so
// a value published with no observer attached is lost.
type Subject[T any] struct {
	mu        sync.Mutex
	observers []*subscriber[T]
	done      bool
	err       error
}

func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

func (s *Subject[T]) snapshot() []*subscriber[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	observers := make([]*subscriber[T], len(s.observers))
	copy(observers, s.observers)
	return observers
}

func (s *Subject[T]) Next(v T) {
	for _, o := range s.snapshot() {
		o.next(v)
	}
}

func (s *Subject[T]) Error(err error) {
	observers := s.snapshot()
	s.mu.Lock()
	s.done, s.err = true, err
	s.observers = nil
	s.mu.Unlock()

	for _, o := range observers {
		o.error(err)
	}
}

func (s *Subject[T]) Complete() {
	observers := s.snapshot()
	s.mu.Lock()
	s.done = true
	s.observers = nil
	s.mu.Unlock()

	for _, o := range observers {
		o.complete()
	}
}

func (s *Subject[T]) Subscribe(o Observer[T]) *Subscription {
	sub := newSubscriber(o)

	s.mu.Lock()
	if s.done {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			sub.error(err)
		} else {
			sub.complete()
		}
		return sub.Subscription
	}
	s.observers = append(s.observers, sub)
	s.mu.Unlock()

	sub.Add(func() { s.remove(sub) })
	return sub.Subscription
}

func (s *Subject[T]) remove(sub *subscriber[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == sub {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

// Observed returns the number of attached observers.
func (s *Subject[T]) Observed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// BehaviorSubject is a single-slot Subject: it holds a current value, replays
// it to every new observer and then forwards each subsequent value.
type BehaviorSubject[T any] struct {
	Subject[T]
	value T
}

func NewBehaviorSubject[T any](initial T) *BehaviorSubject[T] {
	return &BehaviorSubject[T]{value: initial}
}

func (b *BehaviorSubject[T]) Value() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

func (b *BehaviorSubject[T]) Next(v T) {
	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		return
	}
	b.value = v
	b.mu.Unlock()
	b.Subject.Next(v)
}

func (b *BehaviorSubject[T]) Subscribe(o Observer[T]) *Subscription {
	sub := newSubscriber(o)

	b.mu.Lock()
	if b.done {
		err := b.err
		b.mu.Unlock()
		if err != nil {
			sub.error(err)
		} else {
			sub.complete()
		}
		return sub.Subscription
	}
	b.observers = append(b.observers, sub)
	current := b.value
	b.mu.Unlock()

	sub.Add(func() { b.remove(sub) })
	sub.next(current)
	return sub.Subscription
}
