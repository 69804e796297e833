package scheduler

import (
	"context"
)

// Work is a unit executed by the scheduler. It must honour ctx.
type Work[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Data T
	Err  error
}

// Future receives the single result of a submitted Work.
type Future[T any] struct {
	input  chan Result[T]
	cancel context.CancelFunc
}

func newFuture[T any](input chan Result[T], cancel context.CancelFunc) *Future[T] {
	return &Future[T]{
		input:  input,
		cancel: cancel,
	}
}

// C delivers exactly one result.
func (f *Future[T]) C() <-chan Result[T] {
	return f.input
}

// Stop cancels the context of the work. The result is still delivered.
func (f *Future[T]) Stop() {
	f.cancel()
}
