package result

import (
	"errors"
	"fmt"

	"github.com/delaneyj/rxstate/internal/equal"
	"github.com/delaneyj/rxstate/rx"
)

// Result is either Ok(value) or Error(cause). It lets an async store carry a
// failed load as data instead of failing across the store boundary.
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Error wraps cause. A nil cause is replaced so that the Error tag survives.
func Error[T any](cause error) Result[T] {
	if cause == nil {
		cause = ErrNilCause
	}
	return Result[T]{err: cause}
}

// From builds a Result from the usual Go (value, error) pair.
func From[T any](value T, err error) Result[T] {
	if err != nil {
		return Error[T](err)
	}
	return Ok(value)
}

var ErrNilCause = errors.New("result: error without a cause")

func (r Result[T]) IsOk() bool    { return r.err == nil }
func (r Result[T]) IsError() bool { return r.err != nil }

// Value returns the Ok value, or the zero value for an Error.
func (r Result[T]) Value() T { return r.value }

// Err returns the cause of an Error, or nil.
func (r Result[T]) Err() error { return r.err }

// Get unwraps the result into a (value, error) pair.
func (r Result[T]) Get() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// EqualTo reports whether both results carry the same tag and the same value
// or the same cause.
func (r Result[T]) EqualTo(other Result[T]) bool {
	if r.IsOk() != other.IsOk() {
		return false
	}
	if r.IsOk() {
		return equal.Values(r.value, other.value)
	}
	return equal.Any(r.err, other.err)
}

func (r Result[T]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Error(%v)", r.err)
	}
	return fmt.Sprintf("Ok(%v)", r.value)
}

// Equal is EqualTo in the shape rx.Distinct expects.
func Equal[T any](a, b Result[T]) bool {
	return a.EqualTo(b)
}

// Wrap maps a stream's values to Ok results and its error to a final Error
// result, so that downstream observers never see a stream error.
func Wrap[T any](src rx.Observable[T]) rx.Observable[Result[T]] {
	return rx.New(func(o rx.Observer[Result[T]], sub *rx.Subscription) {
		sub.AddSubscription(src.Subscribe(rx.Observer[T]{
			Next: func(v T) {
				o.Next(Ok(v))
			},
			Error: func(err error) {
				o.Next(Error[T](err))
				o.Complete()
			},
			Complete: o.Complete,
		}))
	})
}
