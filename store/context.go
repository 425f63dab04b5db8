package store

import (
	"context"
	"fmt"
)

// Context carries one store, or anything else, through a context.Context.
// Each Context is its own key, so several can coexist in one chain.
type Context[S any] struct {
	name string
}

func NewContext[S any](name string) *Context[S] {
	return &Context[S]{name: name}
}

func (c *Context[S]) With(parent context.Context, s S) context.Context {
	return context.WithValue(parent, c, s)
}

// From returns the value stored by With, or ErrNotInitialized.
func (c *Context[S]) From(ctx context.Context) (S, error) {
	s, ok := ctx.Value(c).(S)
	if !ok {
		var zero S
		return zero, fmt.Errorf("%s: %w", c.name, ErrNotInitialized)
	}
	return s, nil
}

// MustFrom is From for callers that cannot run without the store.
func (c *Context[S]) MustFrom(ctx context.Context) S {
	s, err := c.From(ctx)
	if err != nil {
		panic(err)
	}
	return s
}

func (c *Context[S]) String() string {
	return c.name
}
