// Package storetest runs a single effect outside of any store so that tests
// can feed it actions and inspect what it dispatches.
package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/delaneyj/rxstate/rx"
	"github.com/delaneyj/rxstate/store"
)

// ErrClosed is returned by NextAction once the harness is closed and every
// recorded action has been consumed.
var ErrClosed = errors.New("storetest: harness closed")

// Harness subscribes to an effect's output as soon as it is built and records
// every action the effect emits, in order.
type Harness[S any, A store.Action, D any] struct {
	input *store.Dispatcher[A]
	sub   *rx.Subscription

	mu      sync.Mutex
	actions []A
	cursor  int
	err     error
	closed  bool
	changed chan struct{}
}

func NewHarness[S any, A store.Action, D any](effect store.Effect[S, A, D], state rx.Observable[S], deps D) *Harness[S, A, D] {
	h := &Harness[S, A, D]{
		input:   store.NewDispatcher[A](store.WithQueue(store.NewQueue())),
		changed: make(chan struct{}),
	}
	h.sub = effect(h.input, state, deps).Subscribe(rx.Observer[A]{
		Next: h.record,
		Error: func(err error) {
			h.mu.Lock()
			h.err = err
			h.signalLocked()
			h.mu.Unlock()
		},
	})
	return h
}

func (h *Harness[S, A, D]) record(action A) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = append(h.actions, action)
	h.signalLocked()
}

func (h *Harness[S, A, D]) signalLocked() {
	close(h.changed)
	h.changed = make(chan struct{})
}

// Dispatch feeds action to the effect.
func (h *Harness[S, A, D]) Dispatch(action A) {
	h.input.Next(action)
}

// DispatchImmediately feeds action to the effect and returns the error the
// effect failed with while handling it, if any. Use it for actions that are
// expected to produce no output.
func (h *Harness[S, A, D]) DispatchImmediately(action A) error {
	h.mu.Lock()
	failed := h.err != nil
	h.mu.Unlock()

	h.input.Next(action)

	h.mu.Lock()
	defer h.mu.Unlock()
	if !failed && h.err != nil {
		return h.err
	}
	return nil
}

// NextAction returns the next emitted action that pred accepts, skipping the
// rest. A nil pred accepts everything. It fails with the effect's error, or
// ctx's, whichever comes first once recorded actions run out.
func (h *Harness[S, A, D]) NextAction(ctx context.Context, pred func(A) bool) (A, error) {
	for {
		h.mu.Lock()
		for h.cursor < len(h.actions) {
			action := h.actions[h.cursor]
			h.cursor++
			if pred == nil || pred(action) {
				h.mu.Unlock()
				return action, nil
			}
		}
		err := h.err
		if err == nil && h.closed {
			err = ErrClosed
		}
		wait := h.changed
		h.mu.Unlock()

		var zero A
		if err != nil {
			return zero, err
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// NextActionOfType is NextAction for a single action type.
func (h *Harness[S, A, D]) NextActionOfType(ctx context.Context, actionType string) (A, error) {
	return h.NextAction(ctx, func(a A) bool {
		return a.ActionType() == actionType
	})
}

// Actions returns everything the effect has emitted so far.
func (h *Harness[S, A, D]) Actions() []A {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]A, len(h.actions))
	copy(out, h.actions)
	return out
}

// Close stops the effect.
func (h *Harness[S, A, D]) Close() {
	h.sub.Unsubscribe()
	h.mu.Lock()
	h.closed = true
	h.signalLocked()
	h.mu.Unlock()
}
