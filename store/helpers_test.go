package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/delaneyj/rxstate/result"
	"github.com/delaneyj/rxstate/rx"
)

type action struct {
	kind string
	by   int
}

func (a action) ActionType() string { return a.kind }

func add(n int) action { return action{kind: "add", by: n} }

var noop = action{kind: "noop"}

func counter(state int, a action) int {
	if a.kind == "add" {
		return state + a.by
	}
	return state
}

// recorder collects values delivered from any goroutine.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func (r *recorder[T]) observer() rx.Observer[T] {
	return rx.OnNext(func(v T) {
		r.mu.Lock()
		r.values = append(r.values, v)
		r.mu.Unlock()
	})
}

func (r *recorder[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

func (r *recorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

// rec0 is an observer for tests that only need a subscription.
func rec0() rx.Observer[int] {
	return (&recorder[int]{}).observer()
}

func rec0Result() rx.Observer[result.Result[int]] {
	return (&recorder[result.Result[int]]{}).observer()
}
