package pool

import (
	"context"
	"fmt"
)

// Future resolves exactly once with the task's value or error.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Wait blocks until the future resolves or the context finishes.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("future wait: %w", ctx.Err())
	}
}

// Done reports the future's completion channel for select loops.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
