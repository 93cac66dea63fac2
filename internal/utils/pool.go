package utils

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultPoolSize is the number of blocking calls a BlockingPool runs at once
// when no explicit size is given.
const DefaultPoolSize = 16

// BlockingPool bounds how many blocking calls (synchronous SDK requests) run
// concurrently. Callers hand work to RunBlocking and wait on the result
// without holding their own goroutine hostage to the SDK.
type BlockingPool struct {
	sem *semaphore.Weighted
}

// NewBlockingPool returns a pool running at most size calls at once.
// A size <= 0 uses DefaultPoolSize.
func NewBlockingPool(size int) *BlockingPool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &BlockingPool{sem: semaphore.NewWeighted(int64(size))}
}

type blockingResult[T any] struct {
	value T
	err   error
}

// RunBlocking runs fn on a pool worker and waits for its result or for ctx to
// end, whichever comes first. When ctx ends first the worker keeps running
// until fn returns (fn receives the same ctx and should honor it) and its
// result is discarded. A nil pool runs fn on an unbounded goroutine.
func RunBlocking[T any](ctx context.Context, pool *BlockingPool, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if pool != nil {
		if err := pool.sem.Acquire(ctx, 1); err != nil {
			return zero, err
		}
	}

	done := make(chan blockingResult[T], 1)
	go func() {
		if pool != nil {
			defer pool.sem.Release(1)
		}
		value, err := fn(ctx)
		done <- blockingResult[T]{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case result := <-done:
		return result.value, result.err
	}
}
