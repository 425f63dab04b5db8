package store_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/delaneyj/rxstate/rx"
	"github.com/delaneyj/rxstate/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type none = struct{}

// on re-dispatches then for every action of kind.
func on(kind string, then action) store.Effect[int, action, none] {
	return func(actions rx.Observable[action], _ rx.Observable[int], _ none) rx.Observable[action] {
		matched := rx.Filter(actions, func(a action) bool { return a.kind == kind })
		return rx.MergeMap(matched, func(action) rx.Observable[action] {
			return rx.Of(then)
		})
	}
}

func TestReducerStoreReduces(t *testing.T) {
	r := store.NewReducerStore(0, none{}, counter, nil)
	assert.Equal(t, store.HasValue, r.Status())
	assert.False(t, r.Active())

	// nobody is listening
	r.Next(add(1))
	assert.Equal(t, 0, r.Value())

	rec := &recorder[int]{}
	sub := r.Subscribe(rec.observer())
	assert.True(t, r.Active())

	r.Next(add(2))
	r.Next(noop)
	r.Next(add(3))
	assert.Equal(t, []int{0, 2, 5}, rec.all())
	assert.Equal(t, 5, r.Value())

	sub.Unsubscribe()
	assert.False(t, r.Active())
	r.Next(add(1))
	assert.Equal(t, 5, r.Value())
}

func TestReducerStoreSharesOnePipeline(t *testing.T) {
	var calls atomic.Int32
	counted := func(state int, a action) int {
		calls.Add(1)
		return counter(state, a)
	}
	r := store.NewReducerStore(0, none{}, counted, nil)

	a, b := &recorder[int]{}, &recorder[int]{}
	subA := r.Subscribe(a.observer())
	defer subA.Unsubscribe()
	subB := r.Subscribe(b.observer())
	assert.Equal(t, 2, r.Observed())

	r.Next(add(4))
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, []int{0, 4}, a.all())
	assert.Equal(t, []int{0, 4}, b.all())

	subB.Unsubscribe()
	assert.True(t, r.Active())
	assert.Equal(t, 1, r.Observed())
}

func TestReducerStoreHot(t *testing.T) {
	r := store.NewReducerStore(0, none{}, counter, nil, store.WithHot())
	assert.True(t, r.Active())

	r.Next(add(2))
	assert.Equal(t, 2, r.Value())

	rec := &recorder[int]{}
	sub := r.Subscribe(rec.observer())
	sub.Unsubscribe()
	assert.True(t, r.Active())
	assert.Equal(t, []int{2}, rec.all())

	r.Next(add(1))
	assert.Equal(t, 3, r.Value())
}

func TestReducerStoreLoadIsInitialState(t *testing.T) {
	r := store.NewReducerStore(7, none{}, counter, nil, store.WithHot())
	p := r.Load()
	r.Next(add(1))
	assert.Same(t, p, r.Load())

	v, err := p.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.NoError(t, r.Err())
}

func TestReducerStoreEffectRedispatches(t *testing.T) {
	d := store.NewDispatcher[action]()
	var seen []string
	seenSub := d.Subscribe(rx.OnNext(func(a action) {
		seen = append(seen, a.kind)
	}))
	defer seenSub.Unsubscribe()

	effects := []store.Effect[int, action, none]{on("ping", add(10))}
	r := store.NewReducerStore(0, none{}, counter, effects, store.WithDispatcher(d))
	sub := r.Subscribe(rec0())
	defer sub.Unsubscribe()

	r.Next(action{kind: "ping"})
	assert.Equal(t, 10, r.Value())
	assert.Equal(t, []string{"ping", "add"}, seen)
}

func TestReducerStoreReducerSeesActionBeforeEffects(t *testing.T) {
	var stateAtEffect int
	peek := func(actions rx.Observable[action], state rx.Observable[int], _ none) rx.Observable[action] {
		latest := rx.WithLatestFrom(actions, state)
		return rx.MergeMap(latest, func(l rx.Latest[action, int]) rx.Observable[action] {
			stateAtEffect = l.Latest
			return rx.Empty[action]()
		})
	}

	r := store.NewReducerStore(0, none{}, counter, []store.Effect[int, action, none]{peek})
	sub := r.Subscribe(rec0())
	defer sub.Unsubscribe()

	r.Next(add(3))
	assert.Equal(t, 3, stateAtEffect)
}

func TestReducerStoreEffectFailureIsIsolated(t *testing.T) {
	boom := errors.New("boom")
	explode := func(actions rx.Observable[action], _ rx.Observable[int], _ none) rx.Observable[action] {
		matched := rx.Filter(actions, func(a action) bool { return a.kind == "explode" })
		return rx.MergeMap(matched, func(action) rx.Observable[action] {
			return rx.New(func(o rx.Observer[action], _ *rx.Subscription) {
				o.Error(boom)
			})
		})
	}
	broken := func(rx.Observable[action], rx.Observable[int], none) rx.Observable[action] {
		panic("not today")
	}
	missing := func(rx.Observable[action], rx.Observable[int], none) rx.Observable[action] {
		return nil
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	effects := []store.Effect[int, action, none]{explode, broken, missing, on("ping", add(10))}
	r := store.NewReducerStore(0, none{}, counter, effects, store.WithLogger(logger), store.WithName("isolated"))

	sub := r.Subscribe(rec0())
	defer sub.Unsubscribe()
	assert.Equal(t, 2, strings.Count(buf.String(), "effect failed"))
	assert.Contains(t, buf.String(), "not today")

	r.Next(action{kind: "explode"})
	assert.Equal(t, 3, strings.Count(buf.String(), "effect failed"))
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "store=isolated")

	r.Next(action{kind: "ping"})
	assert.Equal(t, 10, r.Value())

	// a failed effect stays down
	r.Next(action{kind: "explode"})
	assert.Equal(t, 3, strings.Count(buf.String(), "effect failed"))
}

func TestReducerStoreEffectsRestartOnResubscribe(t *testing.T) {
	effects := []store.Effect[int, action, none]{on("ping", add(1))}
	r := store.NewReducerStore(0, none{}, counter, effects)

	sub := r.Subscribe(rec0())
	r.Next(action{kind: "ping"})
	sub.Unsubscribe()
	assert.Equal(t, 1, r.Value())
	assert.Equal(t, 0, r.Dispatcher().Observed())

	sub = r.Subscribe(rec0())
	defer sub.Unsubscribe()
	r.Next(action{kind: "ping"})
	assert.Equal(t, 2, r.Value())
}

func TestReducerStoresShareDispatcher(t *testing.T) {
	d := store.NewDispatcher[action]()
	a := store.NewReducerStore(0, none{}, counter, nil, store.WithDispatcher(d))
	b := store.NewReducerStore(100, none{}, counter, nil, store.WithDispatcher(d))

	subA := a.Subscribe(rec0())
	defer subA.Unsubscribe()
	subB := b.Subscribe(rec0())
	defer subB.Unsubscribe()

	a.Next(add(1))
	d.Next(add(2))
	assert.Equal(t, 3, a.Value())
	assert.Equal(t, 103, b.Value())
}

func TestReducerStoreFactory(t *testing.T) {
	newCounter := store.NewReducerStoreFactory[int, action, none](counter, nil, store.WithHot())
	a, b := newCounter(0, none{}), newCounter(10, none{})
	a.Next(add(1))
	assert.Equal(t, 1, a.Value())
	assert.Equal(t, 10, b.Value())
}

func TestReducerStoreLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := store.NewReducerStore(0, none{}, counter, nil,
		store.WithHot(),
		store.WithName("counter"),
		store.WithLogger(logger),
		store.WithLogActionsWhere(func(a action) bool { return a.kind != "noop" }),
		store.WithLogState(),
	)

	r.Next(noop)
	r.Next(add(2))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "msg=action"))
	assert.Contains(t, out, "type=add")
	assert.Contains(t, out, "store=counter")
	assert.Contains(t, out, "from=0 to=2")
}

func TestReducerStoreLogsRecordChanges(t *testing.T) {
	set := func(state map[string]any, a action) map[string]any {
		next := make(map[string]any, len(state))
		for k, v := range state {
			next[k] = v
		}
		next[a.kind] = a.by
		return next
	}

	var buf bytes.Buffer
	r := store.NewReducerStore(map[string]any{"count": 0}, none{}, set, nil,
		store.WithHot(),
		store.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		store.WithLogState(),
	)

	r.Next(action{kind: "count", by: 1})
	assert.Contains(t, buf.String(), "count: 0 => 1")
}

func TestReducerStoreWithoutLoggerIsQuiet(t *testing.T) {
	r := store.NewReducerStore(0, none{}, counter, nil, store.WithHot(), store.WithLogActions(), store.WithLogState())
	assert.NotPanics(t, func() { r.Next(add(1)) })
}

func TestReducerMap(t *testing.T) {
	reduce := store.ReducerMap(map[string]store.Reducer[int, action]{
		"add": counter,
		"reset": func(int, action) int {
			return 0
		},
	})
	r := store.NewReducerStore(0, none{}, reduce, nil, store.WithHot())

	r.Next(add(4))
	r.Next(action{kind: "unknown", by: 100})
	assert.Equal(t, 4, r.Value())

	r.Next(action{kind: "reset"})
	assert.Equal(t, 0, r.Value())
}

func TestReducerStoreHotRunsEffects(t *testing.T) {
	effects := []store.Effect[int, action, none]{on("ping", add(5))}
	r := store.NewReducerStore(0, none{}, counter, effects, store.WithHot())
	assert.Equal(t, 0, r.Observed())

	r.Next(action{kind: "ping"})
	assert.Equal(t, 5, r.Value())
}
