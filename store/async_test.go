package store_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/delaneyj/rxstate/result"
	"github.com/delaneyj/rxstate/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncStoreLoad(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	a := store.NewAsyncStore[int](func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}, nil)
	assert.Equal(t, store.Initial, a.Status())
	_, ok := a.Value()
	assert.False(t, ok)

	p := a.Load(false)
	assert.Same(t, p, a.Load(false))
	assert.Equal(t, store.Loading, a.Status())

	close(release)
	v, err := p.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	r, ok := a.Value()
	require.True(t, ok)
	assert.Equal(t, result.Ok(7), r)
	assert.Equal(t, store.HasValue, a.Status())

	assert.Same(t, p, a.Load(false))
	assert.EqualValues(t, 1, calls.Load())

	forced := a.Load(true)
	assert.NotSame(t, p, forced)
	_, err = forced.Wait(testContext(t))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestAsyncStoreLoadErrorIsAValue(t *testing.T) {
	boom := errors.New("boom")
	a := store.NewAsyncStore[int](func(context.Context) (int, error) {
		return 0, boom
	}, nil)

	rec := &recorder[result.Result[int]]{}
	sub := a.Subscribe(rec.observer())
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool { return rec.len() == 1 }, waitFor, tick)
	got := rec.all()[0]
	assert.True(t, got.IsError())
	assert.ErrorIs(t, got.Err(), boom)
	assert.Equal(t, store.HasError, a.Status())
	assert.ErrorIs(t, a.Err(), boom)
}

func TestAsyncStoreNextAbandonsLoad(t *testing.T) {
	var canceled atomic.Bool
	a := store.NewAsyncStore[int](func(ctx context.Context) (int, error) {
		<-ctx.Done()
		canceled.Store(true)
		return 0, ctx.Err()
	}, nil)

	rec := &recorder[result.Result[int]]{}
	sub := a.Subscribe(rec.observer())
	defer sub.Unsubscribe()
	p := a.Load(false)
	assert.Equal(t, store.Loading, a.Status())

	a.Next(5)
	assert.Equal(t, store.HasValue, a.Status())
	assert.Equal(t, []result.Result[int]{result.Ok(5)}, rec.all())

	_, err := p.Wait(testContext(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, canceled.Load())

	r, _ := a.Value()
	assert.Equal(t, result.Ok(5), r)

	v, err := a.Load(false).Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestAsyncStoreNextSameValueSkipsSetter(t *testing.T) {
	var sets atomic.Int32
	a := store.NewAsyncStore(
		func(context.Context) (int, error) { return 0, nil },
		func(_ context.Context, v int) (int, error) {
			sets.Add(1)
			return v, nil
		},
	)

	a.Next(1)
	require.Eventually(t, func() bool { return sets.Load() == 1 }, waitFor, tick)
	a.Next(1)
	assert.Never(t, func() bool { return sets.Load() > 1 }, 50*time.Millisecond, tick)
}

func TestAsyncStoreSetterResultBecomesValue(t *testing.T) {
	a := store.NewAsyncStore(
		func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
		func(_ context.Context, v int) (int, error) { return v * 2, nil },
	)

	rec := &recorder[result.Result[int]]{}
	sub := a.Subscribe(rec.observer())
	defer sub.Unsubscribe()
	a.Next(3)

	require.Eventually(t, func() bool {
		r, _ := a.Value()
		return r.Value() == 6
	}, waitFor, tick)
	v, err := a.Load(false).Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 6, v)
	assert.Equal(t, []result.Result[int]{result.Ok(3), result.Ok(6)}, rec.all())
}

func TestAsyncStoreSetterError(t *testing.T) {
	boom := errors.New("read only")
	a := store.NewAsyncStore(
		func(context.Context) (int, error) { return 0, nil },
		func(context.Context, int) (int, error) { return 0, boom },
	)

	a.Next(3)
	require.Eventually(t, func() bool { return a.Status() == store.HasError }, waitFor, tick)
	_, err := a.Load(false).Wait(testContext(t))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, a.Err(), boom)
}

func TestAsyncStoreUnsubscribeCancelsLoad(t *testing.T) {
	var calls, canceled atomic.Int32
	a := store.NewAsyncStore[int](func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-ctx.Done()
		canceled.Add(1)
		return 0, ctx.Err()
	}, nil)

	sub := a.Subscribe(rec0Result())
	assert.Equal(t, store.Loading, a.Status())
	sub.Unsubscribe()
	assert.Equal(t, store.Initial, a.Status())
	require.Eventually(t, func() bool { return canceled.Load() == 1 }, waitFor, tick)

	sub = a.Subscribe(rec0Result())
	defer sub.Unsubscribe()
	assert.Equal(t, store.Loading, a.Status())
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, waitFor, tick)
}

func TestAsyncStoreDistinct(t *testing.T) {
	a := store.NewAsyncStore[int](func(context.Context) (int, error) { return 1, nil }, nil)

	rec := &recorder[result.Result[int]]{}
	sub := a.Subscribe(rec.observer())
	defer sub.Unsubscribe()
	require.Eventually(t, func() bool { return rec.len() == 1 }, waitFor, tick)

	a.Next(1)
	a.Next(2)
	assert.Equal(t, []result.Result[int]{result.Ok(1), result.Ok(2)}, rec.all())
}

func TestAsyncStoreLoadPanicBecomesError(t *testing.T) {
	a := store.NewAsyncStore[string](func(context.Context) (string, error) {
		panic("offline")
	}, nil)

	_, err := a.Load(false).Wait(testContext(t))
	require.Error(t, err)
	require.Eventually(t, func() bool { return a.Status() == store.HasError }, waitFor, tick)
}

func TestAsyncStoreNextSameValueStillAbandonsLoad(t *testing.T) {
	var sets atomic.Int32
	a := store.NewAsyncStore(
		func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
		func(_ context.Context, v int) (int, error) {
			sets.Add(1)
			return v, nil
		},
	)

	a.Next(3)
	require.Eventually(t, func() bool { return sets.Load() == 1 }, waitFor, tick)

	p := a.Load(true)
	assert.Equal(t, store.Loading, a.Status())

	a.Next(3)
	assert.Equal(t, store.HasValue, a.Status())
	_, err := p.Wait(testContext(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Never(t, func() bool { return sets.Load() > 1 }, 50*time.Millisecond, tick)
}

func TestAsyncStoreErrorStaysUntilNext(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	a := store.NewAsyncStore[int](func(context.Context) (int, error) {
		calls.Add(1)
		return 0, boom
	}, nil)

	_, err := a.Load(false).Wait(testContext(t))
	require.ErrorIs(t, err, boom)

	_, err = a.Load(false).Wait(testContext(t))
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, calls.Load())

	a.Next(2)
	v, err := a.Load(false).Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.EqualValues(t, 1, calls.Load())
}
