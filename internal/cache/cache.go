// Package cache memoizes pure computations keyed by string.
package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Cache is a generic key/value store.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Memo runs a compute function at most once per key while the cached result
// is live. Concurrent misses on the same key share one computation and
// errors are never stored.
type Memo[T any] struct {
	store Cache[T]
	group singleflight.Group
}

// NewMemo wraps store.
func NewMemo[T any](store Cache[T]) *Memo[T] {
	return &Memo[T]{store: store}
}

// FetchOrCompute returns the cached value for key or computes and stores it.
// The boolean reports a cache hit. The shared computation does not stop when
// one caller's ctx is cancelled; each caller stops waiting on its own ctx.
func (m *Memo[T]) FetchOrCompute(ctx context.Context, key string, compute func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if v, ok := m.store.Get(key); ok {
		return v, true, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		if v, ok := m.store.Get(key); ok {
			return v, nil
		}
		v, err := compute(shared)
		if err != nil {
			return nil, err
		}
		m.store.Set(key, v)
		return v, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, false, res.Err
	}
	v, ok := res.Val.(T)
	if !ok {
		return zero, false, fmt.Errorf("cache: unexpected value type %T for key %q", res.Val, key)
	}
	return v, false, nil
}

// Invalidate drops key.
func (m *Memo[T]) Invalidate(key string) {
	m.store.Delete(key)
}
