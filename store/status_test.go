package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/delaneyj/rxstate/rx"
	"github.com/delaneyj/rxstate/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []store.Status
		want     store.Status
	}{
		{"none", nil, store.HasValue},
		{"all loaded", []store.Status{store.HasValue, store.HasValue}, store.HasValue},
		{"one initial", []store.Status{store.HasValue, store.Initial}, store.Initial},
		{"loading beats initial", []store.Status{store.Initial, store.Loading, store.HasValue}, store.Loading},
		{"error beats everything", []store.Status{store.Loading, store.HasError, store.Initial}, store.HasError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.CombineStatus(tt.statuses...))
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "initial", store.Initial.String())
	assert.Equal(t, "loading", store.Loading.String())
	assert.Equal(t, "has-value", store.HasValue.String())
	assert.Equal(t, "has-error", store.HasError.String())
}

func TestPending(t *testing.T) {
	ctx := testContext(t)

	p := store.Resolved("done")
	assert.True(t, p.Settled())
	v, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", v)

	boom := errors.New("boom")
	_, err = store.Rejected[string](boom).Wait(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestPendingWaitRespectsContext(t *testing.T) {
	s := store.NewStore(0, store.WithLoad[int](func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}))
	p := s.Load()
	assert.False(t, p.Settled())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	s.Next(1)
	select {
	case <-p.Done():
	case <-time.After(waitFor):
		t.Fatal("abandoned load never settled")
	}
}

func TestContext(t *testing.T) {
	counterCtx := store.NewContext[*store.Store[int]]("counter")
	s := store.NewStore(3)

	_, err := counterCtx.From(context.Background())
	assert.ErrorIs(t, err, store.ErrNotInitialized)
	assert.Contains(t, err.Error(), "counter")
	assert.Panics(t, func() { counterCtx.MustFrom(context.Background()) })

	ctx := counterCtx.With(context.Background(), s)
	got, err := counterCtx.From(ctx)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Same(t, s, counterCtx.MustFrom(ctx))

	other := store.NewContext[*store.Store[int]]("other")
	_, err = other.From(ctx)
	assert.ErrorIs(t, err, store.ErrNotInitialized)
	assert.Equal(t, "counter", counterCtx.String())
}

func TestPendingWaitInsideDelivery(t *testing.T) {
	q := store.NewQueue()
	gate := make(chan struct{})
	loaded := store.NewStore(0, store.WithQueue(q), store.WithLoad[int](func(context.Context) (int, error) {
		<-gate
		return 7, nil
	}))
	trigger := store.NewStore(0, store.WithQueue(q))

	var (
		p       *store.Pending[int]
		waitErr error
	)
	sub := trigger.Subscribe(rx.OnNext(func(v int) {
		if v == 1 {
			p = loaded.Load()
			_, waitErr = p.Wait(testContext(t))
		}
	}))
	defer sub.Unsubscribe()

	trigger.Next(1)
	assert.ErrorIs(t, waitErr, store.ErrWaitInDelivery)

	close(gate)
	v, err := p.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	// settled pendings answer from anywhere
	var settledErr error
	sub2 := trigger.Subscribe(rx.OnNext(func(int) {
		_, settledErr = p.Wait(testContext(t))
	}))
	defer sub2.Unsubscribe()
	assert.NoError(t, settledErr)
}
