// Package memo builds memoized selectors: plain functions of a state that
// return the same result, without recomputing it, for as long as they are
// called with the same state.
//
// Each selector remembers one state. Calling it with the state it saw last
// returns the cached result; any other state replaces the cache. For the
// multi-input variants the combine step is skipped when every input selector
// returns what it returned last time, so a derived slice or map keeps its
// identity across states that do not touch its inputs.
package memo

//go:generate go run ../cmd/codegen --count 3 --out memo_gen.go

import (
	"log/slog"
	"sync"
	"time"

	"github.com/delaneyj/rxstate/internal/equal"
)

type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
}

// Measure logs how long each computation of the selector took.
func Measure(name string, logger *slog.Logger) Option {
	return func(o *options) {
		o.name = name
		o.logger = logger
	}
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) measure(start time.Time) {
	if o.logger == nil {
		return
	}
	o.logger.Info("selector computed",
		slog.String("selector", o.name),
		slog.Duration("elapsed", time.Since(start)),
	)
}

// slot is a one-entry cache.
type slot[K, V any] struct {
	has   bool
	key   K
	value V
}

func (s *slot[K, V]) lookup(key K) (V, bool) {
	if s.has && equal.Values(s.key, key) {
		return s.value, true
	}
	var zero V
	return zero, false
}

func (s *slot[K, V]) store(key K, value V) {
	s.has, s.key, s.value = true, key, value
}

// Memo caches fn's result for the last state it was called with.
func Memo[S, R any](fn func(S) R, opts ...Option) func(S) R {
	o := applyOptions(opts)
	var (
		mu      sync.Mutex
		results slot[S, R]
	)
	return func(state S) R {
		mu.Lock()
		defer mu.Unlock()

		if r, ok := results.lookup(state); ok {
			return r
		}
		defer o.measure(time.Now())

		r := fn(state)
		results.store(state, r)
		return r
	}
}
