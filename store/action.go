package store

import (
	"github.com/delaneyj/rxstate/rx"
)

// Action is anything that can be dispatched. The type tag is what reducers,
// effects and the OfType filter switch on.
type Action interface {
	ActionType() string
}

// Named is the smallest possible Action: the tag and nothing else.
type Named string

func (n Named) ActionType() string { return string(n) }

// Reducer computes the next state from the current one. It must not mutate
// its input.
type Reducer[S any, A Action] func(state S, action A) S

// ReducerMap builds a Reducer that looks the action's type up in reducers and
// leaves the state unchanged for types it has no entry for.
func ReducerMap[S any, A Action](reducers map[string]Reducer[S, A]) Reducer[S, A] {
	return func(state S, action A) S {
		if reduce, ok := reducers[action.ActionType()]; ok {
			return reduce(state, action)
		}
		return state
	}
}

// Effect turns the stream of dispatched actions (and the store's distinct
// state stream) into a stream of new actions. The store re-dispatches every
// action an effect emits; that is the only way an effect can influence it.
type Effect[S any, A Action, D any] func(actions rx.Observable[A], state rx.Observable[S], deps D) rx.Observable[A]
