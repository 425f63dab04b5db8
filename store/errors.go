package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when a store is looked up in a context
	// that was never given one.
	ErrNotInitialized = errors.New("store: not initialized in context")

	ErrEffectPanicked = errors.New("store: effect panicked")
	ErrNilEffect      = errors.New("store: effect returned no stream")

	// ErrWaitInDelivery is returned by Pending.Wait when called from an
	// observer on the queue the load has to finish through.
	ErrWaitInDelivery = errors.New("store: waiting for a load from inside a delivery")
)

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
