// Package effect builds the common shapes of store effects: react to one
// kind of action by running a call and dispatching the action it returns.
package effect

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/rxstate/rx"
	"github.com/delaneyj/rxstate/store"
)

// OfType keeps the actions whose type is one of types.
func OfType[A store.Action](actions rx.Observable[A], types ...string) rx.Observable[A] {
	switch len(types) {
	case 0:
		return rx.Filter(actions, func(A) bool { return false })
	case 1:
		only := types[0]
		return rx.Filter(actions, func(a A) bool { return a.ActionType() == only })
	}
	set := mapset.NewThreadUnsafeSet(types...)
	return rx.Filter(actions, func(a A) bool { return set.Contains(a.ActionType()) })
}

// MapActions replaces each action that has an entry in mapping with what the
// entry returns and drops every other action.
func MapActions[A store.Action](actions rx.Observable[A], mapping map[string]func(A) A) rx.Observable[A] {
	return rx.MergeMap(actions, func(a A) rx.Observable[A] {
		fn, ok := mapping[a.ActionType()]
		if !ok {
			return rx.Empty[A]()
		}
		return rx.Of(fn(a))
	})
}

// Func handles one action given the state at the time it was dispatched. The
// action it returns is dispatched to the store. ctx is canceled when the
// effect stops or, for cancelable effects, when a cancel action arrives.
type Func[S any, A store.Action, D any] func(ctx context.Context, action A, state S, deps D) (A, error)

// New runs fn on its own goroutine for every action of actionType. Calls run
// concurrently. An error from fn stops this effect; the store and its other
// effects keep running.
func New[S any, A store.Action, D any](actionType string, fn Func[S, A, D]) store.Effect[S, A, D] {
	return func(actions rx.Observable[A], state rx.Observable[S], deps D) rx.Observable[A] {
		matched := rx.WithLatestFrom(OfType(actions, actionType), state)
		return rx.MergeMap(matched, func(l rx.Latest[A, S]) rx.Observable[A] {
			return call(fn, l.Value, l.Latest, deps)
		})
	}
}

// NewCancelable is New where an action of any of cancelTypes cancels every
// call in flight. A canceled call's result is discarded.
func NewCancelable[S any, A store.Action, D any](actionType string, cancelTypes []string, fn Func[S, A, D]) store.Effect[S, A, D] {
	return func(actions rx.Observable[A], state rx.Observable[S], deps D) rx.Observable[A] {
		matched := rx.WithLatestFrom(OfType(actions, actionType), state)
		return rx.MergeMap(matched, func(l rx.Latest[A, S]) rx.Observable[A] {
			return rx.TakeUntil(call(fn, l.Value, l.Latest, deps), OfType(actions, cancelTypes...))
		})
	}
}

func call[S any, A store.Action, D any](fn Func[S, A, D], action A, state S, deps D) rx.Observable[A] {
	return rx.FromFunc(func(ctx context.Context) (out A, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("effect %s panicked: %v", action.ActionType(), r)
			}
		}()
		return fn(ctx, action, state, deps)
	})
}
