package cache

import (
	"context"
	"fmt"
)

// Ensure is EnsureFetched for a fetch returning a concrete type.
func Ensure[T any](ctx context.Context, s *Store, key Key, fetch func(ctx context.Context) (T, error)) *Call {
	return s.EnsureFetched(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
}

// Wait waits for call and asserts its value to T.
func Wait[T any](ctx context.Context, call *Call) (T, error) {
	var zero T

	v, err := call.Wait(ctx)
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: %s holds %T, not %T", call.Key(), v, zero)
	}
	return typed, nil
}

// Value returns the value of a present entry as T.
func Value[T any](e Entry) (T, bool) {
	var zero T
	if e.Status != StatusPresent {
		return zero, false
	}
	typed, ok := e.Value.(T)
	return typed, ok
}
