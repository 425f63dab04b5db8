package rx

import "sync"

// Subscription is the handle returned by Subscribe. Unsubscribe runs every
// registered teardown exactly once, in the order they were added.
type Subscription struct {
	mu       sync.Mutex
	closed   bool
	teardown []func()
}

func NewSubscription(teardown ...func()) *Subscription {
	return &Subscription{teardown: teardown}
}

// Add registers fn to run on Unsubscribe. If the subscription is already
// closed fn runs immediately.
func (s *Subscription) Add(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.teardown = append(s.teardown, fn)
	s.mu.Unlock()
}

// AddSubscription ties the lifetime of child to s.
func (s *Subscription) AddSubscription(child *Subscription) {
	if child == nil || child == s {
		return
	}
	s.Add(child.Unsubscribe)
}

func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	teardown := s.teardown
	s.teardown = nil
	s.mu.Unlock()

	for _, fn := range teardown {
		fn()
	}
}

func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
